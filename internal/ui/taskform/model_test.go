package taskform

import (
	"strings"
	"testing"

	"github.com/ymori/salesdesk/internal/attachment"
	"github.com/ymori/salesdesk/internal/model"
)

func TestHandleSubmit_foldsImageURLsIntoDescription(t *testing.T) {
	m := New(80, 24)
	m.fb.title = "Follow up"
	m.fb.description = "Call after lunch."
	m.fb.imageURLs = "https://cdn.example.com/a.png\n\nhttps://cdn.example.com/b.png\n"
	m.fb.customerID = "cust-1"
	m.fb.assigneeID = "user-1"

	cmd := m.handleSubmit()
	if cmd == nil {
		t.Fatal("handleSubmit returned nil cmd")
	}
	msg, ok := cmd().(TaskCreatedMsg)
	if !ok {
		t.Fatalf("expected TaskCreatedMsg, got %T", cmd())
	}

	if !strings.Contains(msg.Params.Description, attachment.Marker) {
		t.Fatalf("description missing image block: %q", msg.Params.Description)
	}
	clean, urls := attachment.Parse(msg.Params.Description)
	if clean != "Call after lunch." {
		t.Errorf("clean description = %q", clean)
	}
	if len(urls) != 2 || urls[0] != "https://cdn.example.com/a.png" || urls[1] != "https://cdn.example.com/b.png" {
		t.Errorf("parsed urls = %v", urls)
	}
}

func TestHandleSubmit_noImageURLsLeavesDescriptionBare(t *testing.T) {
	m := New(80, 24)
	m.fb.title = "Follow up"
	m.fb.description = "Call after lunch."

	msg := m.handleSubmit()().(TaskCreatedMsg)
	if strings.Contains(msg.Params.Description, attachment.Marker) {
		t.Fatalf("unexpected image block: %q", msg.Params.Description)
	}
	if msg.Params.Description != "Call after lunch." {
		t.Errorf("description = %q", msg.Params.Description)
	}
}

func TestStartEdit_roundTripsExistingImageBlock(t *testing.T) {
	original := attachment.Format("Send the quote.", []string{
		"https://cdn.example.com/quote.png",
	})
	task := model.Task{
		ID:          "task-1",
		Title:       "Quote",
		Description: original,
		CustomerID:  "cust-1",
		AssignedTo:  "user-1",
	}

	m := New(80, 24)
	m.SetOptions([]model.Customer{{ID: "cust-1"}}, []model.User{{ID: "user-1"}})
	m.StartEdit(task)

	if m.fb.description != "Send the quote." {
		t.Errorf("description binding = %q", m.fb.description)
	}
	if m.fb.imageURLs != "https://cdn.example.com/quote.png" {
		t.Errorf("imageURLs binding = %q", m.fb.imageURLs)
	}

	msg, ok := m.handleSubmit()().(TaskUpdatedMsg)
	if !ok {
		t.Fatal("expected TaskUpdatedMsg")
	}
	if msg.TaskID != "task-1" {
		t.Errorf("task id = %q", msg.TaskID)
	}
	if msg.Patch.Description == nil || *msg.Patch.Description != original {
		t.Errorf("patch description = %v, want original block preserved", msg.Patch.Description)
	}
}

func TestValidateImageURLs(t *testing.T) {
	if err := validateImageURLs(""); err != nil {
		t.Errorf("empty value: %v", err)
	}
	if err := validateImageURLs("https://a.example.com/x.png\nhttp://b.example.com/y.png"); err != nil {
		t.Errorf("valid urls: %v", err)
	}
	if err := validateImageURLs("ftp://a.example.com/x.png"); err == nil {
		t.Error("expected error for non-http url")
	}
}
