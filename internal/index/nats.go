package index

import "github.com/nats-io/nats.go"

// natsPublisher mirrors the Changed notification to a NATS subject for
// cross-process listeners (spec §4.8's optional [events] nats_url).
// When no URL is configured it degrades to a no-op so the index never
// depends on a broker for local single-process use.
type natsPublisher struct {
	conn *nats.Conn
}

func connectNats(url string) natsPublisher {
	if url == "" {
		return natsPublisher{}
	}
	conn, err := nats.Connect(url)
	if err != nil {
		// Best-effort: a misconfigured or unreachable broker must not
		// block local indexing.
		return natsPublisher{}
	}
	return natsPublisher{conn: conn}
}

func (p natsPublisher) publish(subject string) {
	if p.conn == nil {
		return
	}
	p.conn.Publish(subject, nil)
}

func (p natsPublisher) close() {
	if p.conn == nil {
		return
	}
	p.conn.Close()
}
