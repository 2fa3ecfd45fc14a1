package session

import (
	"encoding/json"
	"time"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
)

// sessionStartedPayload is the JSON shape of a SESSION_STARTED
// event's payload.
type sessionStartedPayload struct {
	Name            string            `json:"name"`
	ProjectDir      string            `json:"projectDir,omitempty"`
	ParentSessionID string            `json:"parentSessionId,omitempty"`
	DefaultChannel  string            `json:"defaultChannel,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// lifecycleReasonPayload is the JSON shape shared by SESSION_ENDED,
// SESSION_PAUSED, and SESSION_RESUMED payloads: a free-form reason,
// never inferred (spec §1's "explicit-only" non-goal applies equally
// here — a pause/end reason is only ever what the caller supplied).
type lifecycleReasonPayload struct {
	Reason string `json:"reason,omitempty"`
}

// memoryWritePayload is the JSON shape of MEMORY_SAVED and
// MEMORY_UPDATED event payloads.
type memoryWritePayload struct {
	Key     string        `json:"key"`
	Value   string        `json:"value"`
	Options memoryOptsDTO `json:"options,omitempty"`
}

// memoryDeletePayload is the JSON shape of a MEMORY_DELETED event
// payload.
type memoryDeletePayload struct {
	Key string `json:"key"`
}

// memoryOptsDTO is MemoryOptions's wire representation: time.Duration
// doesn't round-trip through JSON on its own, so TTL is carried as
// nanoseconds.
type memoryOptsDTO struct {
	Tags   []string `json:"tags,omitempty"`
	TTLNs  int64    `json:"ttlNs,omitempty"`
	HasTTL bool     `json:"hasTtl,omitempty"`
}

func toOptsDTO(o MemoryOptions) memoryOptsDTO {
	dto := memoryOptsDTO{Tags: o.Tags}
	if o.TTL != nil {
		dto.TTLNs = int64(*o.TTL)
		dto.HasTTL = true
	}
	return dto
}

func (d memoryOptsDTO) toOptions() MemoryOptions {
	opts := MemoryOptions{Tags: d.Tags}
	if d.HasTTL {
		ttl := time.Duration(d.TTLNs)
		opts.TTL = &ttl
	}
	return opts
}

func marshalJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Every payload type here is a plain struct of strings/maps;
		// Marshal can only fail on unsupported types, which would be a
		// programming error, not a runtime condition callers recover from.
		panic(err)
	}
	return data
}

func unmarshalPayload(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return pmerrors.ParseError("session", "malformed event payload", err)
	}
	return nil
}
