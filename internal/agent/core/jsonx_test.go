package core

import "testing"

func TestDecodeCompletionJSONPlain(t *testing.T) {
	var out map[string]interface{}
	if err := DecodeCompletionJSON(`{"query_type":"general","confidence":0.5}`, &out); err != nil {
		t.Fatalf("plain object: %v", err)
	}
	if out["query_type"] != "general" {
		t.Fatalf("got %v", out["query_type"])
	}
}

func TestDecodeCompletionJSONFenced(t *testing.T) {
	text := "```json\n{\"summary\":\"good\"}\n```"
	var out Analysis
	if err := DecodeCompletionJSON(text, &out); err != nil {
		t.Fatalf("fenced object: %v", err)
	}
	if out.Summary != "good" {
		t.Fatalf("got %q", out.Summary)
	}
}

func TestDecodeCompletionJSONProseWrapped(t *testing.T) {
	text := `Sure! Here is the analysis you asked for:
{"summary":"views are up","metrics":{"average_views":1200}}
Hope that helps.`
	var out Analysis
	if err := DecodeCompletionJSON(text, &out); err != nil {
		t.Fatalf("prose-wrapped object: %v", err)
	}
	if out.Summary != "views are up" {
		t.Fatalf("got %q", out.Summary)
	}
	if out.Metrics["average_views"] != 1200 {
		t.Fatalf("metrics not parsed: %v", out.Metrics)
	}
}

func TestDecodeCompletionJSONBracesInsideStrings(t *testing.T) {
	text := `prefix {"summary":"use {curly} braces","key_insights":[]} suffix`
	var out Analysis
	if err := DecodeCompletionJSON(text, &out); err != nil {
		t.Fatalf("braces in string: %v", err)
	}
	if out.Summary != "use {curly} braces" {
		t.Fatalf("got %q", out.Summary)
	}
}

func TestDecodeCompletionJSONMalformed(t *testing.T) {
	var out Analysis
	if err := DecodeCompletionJSON("I could not produce JSON, sorry.", &out); err == nil {
		t.Fatal("expected error for text with no object")
	}
	if err := DecodeCompletionJSON(`{"summary": "unterminated`, &out); err == nil {
		t.Fatal("expected error for unbalanced object")
	}
}
