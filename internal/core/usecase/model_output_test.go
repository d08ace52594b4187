package usecase

import (
	"testing"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

func TestParseModelOutputExtractsActionsFromFencedBlock(t *testing.T) {
	raw := "Đã hiểu, tôi sẽ tạo sự kiện.\n```json\n[{\"toolName\": \"ADD_EVENT\", \"args\": {\"title\": \"Music Night\"}}]\n```"

	output := ParseModelOutput(raw)
	if output.Kind != domain.ModelOutputActions {
		t.Fatalf("kind = %s", output.Kind)
	}
	if len(output.Actions) != 1 || output.Actions[0].ToolName != "ADD_EVENT" {
		t.Fatalf("actions = %+v", output.Actions)
	}
	if output.Text != "Đã hiểu, tôi sẽ tạo sự kiện." {
		t.Fatalf("text = %q", output.Text)
	}
}

func TestParseModelOutputPlainText(t *testing.T) {
	output := ParseModelOutput("Chào bạn!")
	if output.Kind != domain.ModelOutputText || output.Text != "Chào bạn!" {
		t.Fatalf("output = %+v", output)
	}
}

func TestParseModelOutputFirstBlockWins(t *testing.T) {
	raw := `[{"toolName": "DELETE_EVENT", "args": {"title": "A"}}] và [{"toolName": "DELETE_EVENT", "args": {"title": "B"}}]`

	output := ParseModelOutput(raw)
	if output.Kind != domain.ModelOutputActions {
		t.Fatalf("kind = %s", output.Kind)
	}
	if len(output.Actions) != 1 || output.Actions[0].Args["title"] != "A" {
		t.Fatalf("actions = %+v", output.Actions)
	}
}

func TestParseModelOutputEmptyObjectKeepsActionKind(t *testing.T) {
	output := ParseModelOutput("không có hành động nào [{}] cả")
	if output.Kind != domain.ModelOutputActions {
		// [{}] parses into one empty action; the agent rejects the unknown
		// tool downstream.
		t.Fatalf("kind = %s", output.Kind)
	}
}
