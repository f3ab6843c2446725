package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/posengine-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project, name, want string
	}{
		{"proj", "pos-sales-events", "projects/proj/topics/pos-sales-events"},
		{"proj", " projects/other/topics/x ", "projects/other/topics/x"},
		{"", "pos-sales-events", ""},
		{"proj", "  ", ""},
	}
	for _, tc := range cases {
		if got := topicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("topicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestTopicNamesDedupes(t *testing.T) {
	names := TopicNames(config.PubSubConfig{SalesTopic: "pos", InventoryTopic: "pos", CatalogTopic: " catalog "})
	if len(names) != 2 || names[0] != "pos" || names[1] != "catalog" {
		t.Fatalf("unexpected topic names %v", names)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
	var nilClient *Client
	if nilClient.Publisher("x") != nil {
		t.Fatal("nil client should not return a publisher")
	}
	if err := nilClient.Ping(context.Background()); err == nil {
		t.Fatal("nil client ping should fail")
	}
}
