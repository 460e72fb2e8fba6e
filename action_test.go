package conduit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionName(t *testing.T) {
	assert.Equal(t, "conduit.NoAction", ActionName(NoAction))
	assert.Equal(t, "conduit.Done", ActionName(Done))
	assert.Equal(t, "conduit.testAction", ActionName(testAction{ID: "x"}))
	assert.Equal(t, "<nil>", ActionName(nil))
}

func TestSentinels_Distinct(t *testing.T) {
	assert.NotEqual(t, NoAction, Done)
	assert.Equal(t, NoAction, noAction{})
}

func TestResult_ZeroValueIsDirty(t *testing.T) {
	var res Result[counter]
	assert.False(t, res.Clean, "the zero value means: unknown, check")
}
