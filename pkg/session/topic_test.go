package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTopicMatchesToolName(t *testing.T) {
	assert.Equal(t, TopicGitOperations, ClassifyTopic("git_commit", nil))
	assert.Equal(t, TopicTesting, ClassifyTopic("run_pytest_suite", nil))
	assert.Equal(t, TopicDebugging, ClassifyTopic("fix_null_pointer", nil))
}

func TestClassifyTopicFallsBackToArgumentValues(t *testing.T) {
	topic := ClassifyTopic("run_tool", map[string]string{"command": "docker build ."})
	assert.Equal(t, TopicDeployment, topic)
}

func TestClassifyTopicDefaultsToGeneral(t *testing.T) {
	assert.Equal(t, TopicGeneral, ClassifyTopic("noop", map[string]string{"x": "1"}))
}

func TestInferMemoryTypeEpisodicTakesPriority(t *testing.T) {
	assert.Equal(t, "episodic", inferMemoryType("write_file"))
	assert.Equal(t, "semantic", inferMemoryType("search_docs"))
	assert.Equal(t, "procedural", inferMemoryType("generate_template"))
	assert.Equal(t, "episodic", inferMemoryType("unrelated_tool"))
}
