package session

import "strings"

// Topic is one of the closed set of categories §4.9 names. Unlike the
// distillation pipeline's open keyword buckets, this set never grows
// at runtime: an observation that matches nothing is TopicGeneral.
type Topic string

const (
	TopicFileOperations Topic = "file_operations"
	TopicGitOperations  Topic = "git_operations"
	TopicDatabase       Topic = "database"
	TopicTesting        Topic = "testing"
	TopicDeployment     Topic = "deployment"
	TopicResearch       Topic = "research"
	TopicCodeGeneration Topic = "code_generation"
	TopicRefactoring    Topic = "refactoring"
	TopicDebugging      Topic = "debugging"
	TopicDocumentation  Topic = "documentation"
	TopicGeneral        Topic = "general"
)

type topicPattern struct {
	topic    Topic
	keywords []string
}

// topicPatterns is evaluated in order so that, like the original
// classifier's dict iteration, the first matching topic wins ties.
var topicPatterns = []topicPattern{
	{TopicFileOperations, []string{"write_file", "read_file", "delete_file", "move_file", "copy_file"}},
	{TopicGitOperations, []string{"git_commit", "git_push", "git_pull", "git_branch", "git_merge"}},
	{TopicDatabase, []string{"query", "insert", "update", "delete", "migrate", "sql"}},
	{TopicTesting, []string{"test", "pytest", "unittest", "assertion", "mock"}},
	{TopicDeployment, []string{"deploy", "build", "docker", "kubernetes", "ci_cd", "pipeline"}},
	{TopicResearch, []string{"search", "fetch", "web", "api", "http", "request"}},
	{TopicCodeGeneration, []string{"generate", "create", "scaffold", "template"}},
	{TopicRefactoring, []string{"refactor", "rename", "extract", "inline", "move"}},
	{TopicDebugging, []string{"debug", "fix", "error", "exception", "trace"}},
	{TopicDocumentation, []string{"doc", "readme", "comment", "markdown"}},
}

// ClassifyTopic maps a tool name and its arguments to one of the
// closed topics, checking the tool name first and the argument values
// second before falling back to TopicGeneral.
func ClassifyTopic(toolName string, arguments map[string]string) Topic {
	toolLower := strings.ToLower(toolName)
	for _, p := range topicPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(toolLower, kw) {
				return p.topic
			}
		}
	}

	argsLower := strings.ToLower(flattenArguments(arguments))
	for _, p := range topicPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(argsLower, kw) {
				return p.topic
			}
		}
	}

	return TopicGeneral
}

func flattenArguments(arguments map[string]string) string {
	var b strings.Builder
	for k, v := range arguments {
		b.WriteString(k)
		b.WriteByte(' ')
		b.WriteString(v)
		b.WriteByte(' ')
	}
	return b.String()
}

// inferMemoryType guesses which memory type an observation's tool
// name belongs under, mirroring the original's keyword buckets. It
// only tags the observation; the session summary itself always lands
// under current/episodic/sessions/ per §4.9.
func inferMemoryType(toolName string) string {
	toolLower := strings.ToLower(toolName)

	episodic := []string{"write", "delete", "run", "execute", "commit", "deploy"}
	semantic := []string{"search", "read", "fetch", "query", "get"}
	procedural := []string{"generate", "create", "refactor", "template"}

	for _, kw := range episodic {
		if strings.Contains(toolLower, kw) {
			return "episodic"
		}
	}
	for _, kw := range semantic {
		if strings.Contains(toolLower, kw) {
			return "semantic"
		}
	}
	for _, kw := range procedural {
		if strings.Contains(toolLower, kw) {
			return "procedural"
		}
	}
	return "episodic"
}
