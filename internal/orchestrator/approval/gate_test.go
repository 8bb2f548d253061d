package approval

import (
	"testing"

	"github.com/fleetops/fleetops/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateTriggers_ProdEnvAlone(t *testing.T) {
	triggers := EvaluateTriggers("prod", false, false)
	assert.Equal(t, []model.Trigger{model.TriggerProdEnv}, triggers)
}

func TestEvaluateTriggers_NoneForDevWithoutOtherFlags(t *testing.T) {
	triggers := EvaluateTriggers("dev", false, false)
	assert.Empty(t, triggers)
}

func TestEvaluateTriggers_AllThreeCombine(t *testing.T) {
	triggers := EvaluateTriggers("prod", true, true)
	assert.ElementsMatch(t, []model.Trigger{
		model.TriggerProdEnv,
		model.TriggerCriticalGroup,
		model.TriggerTemplateRequiresApproval,
	}, triggers)
}

func TestEvaluateTriggers_CriticalGroupInNonProdEnv(t *testing.T) {
	triggers := EvaluateTriggers("stage", true, false)
	assert.Equal(t, []model.Trigger{model.TriggerCriticalGroup}, triggers)
}
