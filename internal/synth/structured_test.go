package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manualhub/internal/ai"
	"manualhub/internal/chunk"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, _ []ai.ChatMessage) (string, error) {
	return f.reply, f.err
}

func testGenChunks() []chunk.Chunk {
	return []chunk.Chunk{{Heading: "# Maintenance", Text: "Check oil daily."}}
}

func TestGenerateRulesFromJSON(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{reply: `Here are the rules:
[
  {"condition": "Temperature > 30", "action": "Alert operator", "category": "thermal", "priority": "high"}
]`})

	rules, err := gen.Rules(context.Background(), testGenChunks())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "Temperature > 30", rules[0].Condition)
	assert.Equal(t, "high", rules[0].Priority)
}

func TestGenerateRulesTextFallback(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{reply: `Monitoring suggestions:
If pressure > 5 bar then open the relief valve
Keep the area clean`})

	rules, err := gen.Rules(context.Background(), testGenChunks())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "If pressure > 5 bar then open the relief valve", rules[0].Condition)
	assert.Equal(t, "Monitor and alert", rules[0].Action)
}

func TestGenerateMaintenanceTextFallback(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{reply: `Suggested schedule:
Check oil levels daily
Clean the filters weekly
No other tasks identified`})

	tasks, err := gen.MaintenanceSchedule(context.Background(), testGenChunks())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "daily", tasks[0].Frequency)
	assert.Equal(t, "Check oil levels daily", tasks[0].Task)
	assert.Equal(t, "weekly", tasks[1].Frequency)
}

func TestGenerateSafetyTextFallback(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{reply: `Warning: surfaces exceed 80 degrees
Follow the lockout procedure for safety
Unrelated line`})

	items, err := gen.SafetyInformation(context.Background(), testGenChunks())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "warning", items[0].Type)
	assert.Equal(t, "procedure", items[1].Type)
}

func TestGeneratePropagatesLLMError(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{err: assert.AnError})
	_, err := gen.Rules(context.Background(), testGenChunks())
	assert.Error(t, err)
}
