package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageURI(t *testing.T) {
	scenarios := []struct {
		region   string
		expected string
	}{
		{"us-east-1", "763104351884.dkr.ecr.us-east-1.amazonaws.com/huggingface-pytorch-inference:2.0.1"},
		{"eu-west-1", "763104351884.dkr.ecr.eu-west-1.amazonaws.com/huggingface-pytorch-inference:2.0.1"},
		{"me-south-1", "217643126080.dkr.ecr.me-south-1.amazonaws.com/huggingface-pytorch-inference:2.0.1"},
		{"cn-north-1", "727897471807.dkr.ecr.cn-north-1.amazonaws.com.cn/huggingface-pytorch-inference:2.0.1"},
	}

	for _, scenario := range scenarios {
		assert.Equal(t, scenario.expected, ImageURI("huggingface-pytorch-inference", "2.0.1", scenario.region), scenario.region)
	}
}
