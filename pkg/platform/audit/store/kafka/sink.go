// Package kafka publishes audit events to a Kafka topic so downstream SIEM and
// review tooling can consume the security log without touching the database.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "civicproof/pkg/platform/audit"
)

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink implements audit.Sink.
type Sink struct {
	producer Producer
	topic    string
}

func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

// message is the JSON wire format of an audit record on the topic.
type message struct {
	ID             string `json:"id"`
	Timestamp      string `json:"timestamp"`
	Action         string `json:"action"`
	Category       string `json:"category"`
	ReportID       string `json:"report_id,omitempty"`
	SubmitterID    string `json:"submitter_id,omitempty"`
	SubmitterEmail string `json:"submitter_email,omitempty"`
	Reason         string `json:"reason"`
	Score          int    `json:"suspicion_score"`
	Severity       string `json:"severity"`
	Mode           string `json:"mode,omitempty"`
	IP             string `json:"ip,omitempty"`
	Device         string `json:"device,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(message{
		ID:             event.ID.String(),
		Timestamp:      event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:         string(event.Action),
		Category:       string(event.Action.Category()),
		ReportID:       event.ReportID,
		SubmitterID:    event.SubmitterID,
		SubmitterEmail: event.SubmitterEmail,
		Reason:         event.Reason,
		Score:          event.Score,
		Severity:       string(event.Severity),
		Mode:           event.Mode,
		IP:             event.IP,
		Device:         event.Device,
		RequestID:      event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit message: %w", err)
	}

	// Keyed by report so all attempts against one report stay ordered in a partition.
	key := event.ReportID
	if key == "" {
		key = event.ID.String()
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "severity", Value: []byte(event.Severity)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit message: %w", err)
	}
	return nil
}
