package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

type JetStreamConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxAge        time.Duration // How long an idle match snapshot is kept
	Replicas      int
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:           nats.DefaultURL,
		StreamName:    "MATCH_SNAPSHOTS",
		SubjectPrefix: "match.snapshots",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		MaxAge:        7 * 24 * time.Hour,
		Replicas:      1,
	}
}

// JetStreamFeed is a Feed backed by a JetStream stream that keeps only the
// newest event per match subject, so any gateway instance can serve any
// match and a new subscriber starts from the latest snapshot.
type JetStreamFeed struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

func NewJetStreamFeed(ctx context.Context, cfg JetStreamConfig) (*JetStreamFeed, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	f := &JetStreamFeed{nc: nc, js: js, config: cfg}
	if err := f.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return f, nil
}

func (f *JetStreamFeed) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:              f.config.StreamName,
		Description:       "Latest scoreboard snapshot per match",
		Subjects:          []string{f.config.SubjectPrefix + ".>"},
		Retention:         jetstream.LimitsPolicy,
		MaxMsgsPerSubject: 1,
		Discard:           jetstream.DiscardOld,
		MaxAge:            f.config.MaxAge,
		Storage:           jetstream.FileStorage,
		Replicas:          f.config.Replicas,
	}

	stream, err := f.js.CreateOrUpdateStream(ctx, sc)
	if err != nil {
		return fmt.Errorf("create or update stream: %w", err)
	}
	log.Info().
		Str("stream", stream.CachedInfo().Config.Name).
		Msg("JetStream stream ready")
	return nil
}

func (f *JetStreamFeed) subject(matchID string) string {
	return f.config.SubjectPrefix + "." + matchID
}

// Publish stores event as the latest snapshot of its match.
func (f *JetStreamFeed) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := f.subject(event.MatchID)
	ack, err := f.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{string(event.Type)},
			"Match-ID":   []string{event.MatchID},
			"Version":    []string{strconv.FormatInt(event.Version, 10)},
		},
	},
		jetstream.WithMsgID(event.ID),
		jetstream.WithExpectStream(f.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", event.ID).
		Int64("version", event.Version).
		Uint64("sequence", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("published match snapshot")
	return nil
}

// Subscribe opens an ordered consumer on the match subject starting from the
// stored snapshot.
func (f *JetStreamFeed) Subscribe(ctx context.Context, matchID string) (*Subscription, error) {
	consumer, err := f.js.OrderedConsumer(ctx, f.config.StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{f.subject(matchID)},
		DeliverPolicy:  jetstream.DeliverLastPerSubjectPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create ordered consumer: %w", err)
	}

	consumeCtx, cancel := context.WithCancel(context.Background())
	sub := newSubscription(ctx, cancel)

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			log.Error().
				Err(err).
				Str("subject", msg.Subject()).
				Msg("failed to decode match snapshot")
			return
		}
		sub.offer(ev)
	})
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("start consumer: %w", err)
	}

	go func() {
		<-consumeCtx.Done()
		cc.Stop()
	}()
	return sub, nil
}

// Ping reports whether the NATS connection is usable.
func (f *JetStreamFeed) Ping(ctx context.Context) error {
	if status := f.nc.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats connection is %s", status)
	}
	return f.nc.FlushWithContext(ctx)
}

func (f *JetStreamFeed) Close() error {
	if f.nc != nil {
		f.nc.Close()
	}
	return nil
}
