package bus

import (
	"testing"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/sse"
)

func TestOriginTagging(t *testing.T) {
	b := &redisBus{id: "instance-a"}

	tagged := b.tagOrigin(sse.Message{Channel: "batch:x", Event: "lesson"})
	if tagged.Origin != "instance-a" {
		t.Fatalf("origin=%q, want the publishing instance id", tagged.Origin)
	}

	// A message relayed with an origin already set keeps it.
	relayed := b.tagOrigin(sse.Message{Origin: "instance-b"})
	if relayed.Origin != "instance-b" {
		t.Fatalf("origin=%q, relaying must not overwrite it", relayed.Origin)
	}
}

func TestForwarderSkipsOwnMessages(t *testing.T) {
	b := &redisBus{id: "instance-a"}

	if !b.isSelf("instance-a") {
		t.Fatalf("own origin not recognized")
	}
	if b.isSelf("instance-b") {
		t.Fatalf("foreign origin treated as self")
	}
	// Untagged messages (older producers) are forwarded, not dropped.
	if b.isSelf("") {
		t.Fatalf("empty origin treated as self")
	}
}
