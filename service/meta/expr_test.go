package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvExpr(t *testing.T) {
	testCases := []struct {
		description string
		env         map[string]string
		input       string
		expected    string
	}{
		{description: "plain", input: "frames: 64", expected: "frames: 64"},
		{description: "single", env: map[string]string{"STRIDER_FRAMES": "128"}, input: "frames: ${env.STRIDER_FRAMES}", expected: "frames: 128"},
		{description: "repeated", env: map[string]string{"A": "1", "B": "2"}, input: "${env.A}-${env.B}-${env.A}", expected: "1-2-1"},
		{description: "unset", input: "x=${env.STRIDER_UNSET}-end", expected: "x=-end"},
		{description: "missing brace", env: map[string]string{"X": "x"}, input: "start ${env.X and ${env.Y} end", expected: "start ${env.X and  end"},
		{description: "unterminated", input: "tail ${env.X", expected: "tail ${env.X"},
		{description: "empty key", input: "oops ${env.} done", expected: "oops  done"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			t.Setenv("Y", "")
			for k, v := range testCase.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, testCase.expected, expandEnvExpr(testCase.input))
		})
	}
}
