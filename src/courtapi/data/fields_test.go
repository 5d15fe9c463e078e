package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldsRoundTrip(t *testing.T) {
	assert.Equal(t, []string{"phase", "exam_round"}, splitFields(joinFields([]string{"phase", "exam_round"})))
	assert.Nil(t, splitFields(""))
	assert.Equal(t, "", joinFields(nil))
}
