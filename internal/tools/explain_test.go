package tools

import (
	"context"
	"testing"
)

func TestExplain_List(t *testing.T) {
	tool := &ExplainTool{}
	result, err := tool.Execute(context.Background(), map[string]any{"topic": "list"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	topics, ok := result["topics"].([]map[string]any)
	if !ok {
		t.Fatalf("topics = %T", result["topics"])
	}
	if len(topics) != len(explainTopics) {
		t.Errorf("got %d topics, want %d", len(topics), len(explainTopics))
	}
	for _, tp := range topics {
		if tp["topic"] == "" || tp["title"] == "" {
			t.Errorf("topic entry missing fields: %v", tp)
		}
	}
}

func TestExplain_KnownTopic(t *testing.T) {
	tool := &ExplainTool{}
	result, err := tool.Execute(context.Background(), map[string]any{"topic": "connectivity"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if success, _ := result["success"].(bool); !success {
		t.Fatal("known topic should succeed")
	}
	for _, key := range []string{"title", "description", "content", "links", "related_topics"} {
		if _, ok := result[key]; !ok {
			t.Errorf("response missing %s", key)
		}
	}
	related := result["related_topics"].([]string)
	if len(related) > 3 {
		t.Errorf("related topics capped at 3, got %d", len(related))
	}
	for _, r := range related {
		if _, ok := explainTopics[r]; !ok {
			t.Errorf("related topic %q does not exist", r)
		}
	}
}

func TestExplain_UnknownTopic(t *testing.T) {
	tool := &ExplainTool{}
	result, err := tool.Execute(context.Background(), map[string]any{"topic": "nonsense"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if success, _ := result["success"].(bool); success {
		t.Error("unknown topic should not succeed")
	}
	if result["hint"] == "" {
		t.Error("unknown topic should hint at 'list'")
	}
}

func TestExplain_AllRelatedTopicsExist(t *testing.T) {
	for name, tp := range explainTopics {
		for _, r := range tp.Related {
			if _, ok := explainTopics[r]; !ok {
				t.Errorf("topic %q references missing related topic %q", name, r)
			}
		}
	}
}
