package rabbitmq

import (
	"reflect"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type declaredQueue struct {
	durable bool
	args    amqp.Table
}

type recordingDeclarer struct {
	queues map[string]declaredQueue
}

func (r *recordingDeclarer) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if r.queues == nil {
		r.queues = make(map[string]declaredQueue)
	}
	r.queues[name] = declaredQueue{durable: durable, args: args}
	return amqp.Queue{Name: name}, nil
}

func TestDeclareTopologyQueueShapes(t *testing.T) {
	rec := &recordingDeclarer{}
	if err := DeclareTopology(rec, "summarize_jobs"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	if len(rec.queues) != 3 {
		t.Fatalf("expected 3 queues, got %d", len(rec.queues))
	}

	main, ok := rec.queues["summarize_jobs"]
	if !ok {
		t.Fatal("main queue not declared")
	}
	if main.args["x-dead-letter-routing-key"] != "summarize_jobs.dlq" {
		t.Fatalf("main queue must dead-letter to the dlq, args=%v", main.args)
	}

	retry, ok := rec.queues["summarize_jobs.retry"]
	if !ok {
		t.Fatal("retry queue not declared")
	}
	if retry.args["x-dead-letter-routing-key"] != "summarize_jobs" {
		t.Fatalf("retry queue must route back to the main queue, args=%v", retry.args)
	}
	ttl, ok := retry.args["x-message-ttl"].(int32)
	if !ok || ttl <= 0 {
		t.Fatalf("retry queue needs a positive ttl, args=%v", retry.args)
	}

	dlq, ok := rec.queues["summarize_jobs.dlq"]
	if !ok {
		t.Fatal("dlq not declared")
	}
	if dlq.args != nil {
		t.Fatalf("dlq must carry no arguments, got %v", dlq.args)
	}

	for name, q := range rec.queues {
		if !q.durable {
			t.Fatalf("queue %s must be durable", name)
		}
	}
}

// The broker rejects a redeclaration with different arguments, so two
// independent callers must produce byte-identical declarations.
func TestDeclareTopologyIsIdenticalAcrossCallers(t *testing.T) {
	api := &recordingDeclarer{}
	worker := &recordingDeclarer{}
	if err := DeclareTopology(api, "summarize_jobs"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := DeclareTopology(worker, "summarize_jobs"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if !reflect.DeepEqual(api.queues, worker.queues) {
		t.Fatalf("declarations differ:\napi=%v\nworker=%v", api.queues, worker.queues)
	}
}

func TestAttemptFrom(t *testing.T) {
	cases := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{"nil headers", nil, 1},
		{"no header", amqp.Table{}, 1},
		{"int32", amqp.Table{"x-attempt": int32(3)}, 3},
		{"int64", amqp.Table{"x-attempt": int64(2)}, 2},
		{"wrong type", amqp.Table{"x-attempt": "2"}, 1},
	}
	for _, tc := range cases {
		if got := AttemptFrom(tc.headers); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}
