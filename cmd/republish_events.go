package cmd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/clinichub/services/appointment/config"
	"example.com/clinichub/services/appointment/internal/correlation"
	"example.com/clinichub/services/appointment/internal/database"
	"example.com/clinichub/services/appointment/internal/eventstore"
	"example.com/clinichub/services/appointment/internal/messaging"
	"example.com/clinichub/services/appointment/internal/metrics"
)

var (
	republishFrom string
	republishTo   string
)

// republishEventsCmd replays audit entries onto the topic so the read model
// can be rebuilt after a projection outage. Projections are idempotent full
// overwrites, so replaying already-projected entries is harmless.
var republishEventsCmd = &cobra.Command{
	Use:   "republish_events",
	Short: "Republish audit events to the topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		configureLogging(cfg)

		from, err := time.Parse(time.RFC3339, republishFrom)
		if err != nil {
			return err
		}
		to := time.Now().UTC()
		if republishTo != "" {
			to, err = time.Parse(time.RFC3339, republishTo)
			if err != nil {
				return err
			}
		}

		db, err := database.Connect(cfg.DB)
		if err != nil {
			return err
		}

		metricsCollector := metrics.NewMetrics()
		publisher, err := messaging.NewAzurePublisher(cfg.Azure.ConnStr, cfg.Azure.Topic, metricsCollector)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		defer publisher.Close(context.Background())

		store := eventstore.NewGormStore(db)
		events, err := store.ListByTimeRange(ctx, from, to)
		if err != nil {
			return err
		}

		republished := 0
		for _, event := range events {
			// Replays carry the original correlation id so the replayed hop
			// still joins the original trace.
			eventCtx := correlation.WithID(ctx, event.CorrelationID)
			if err := publisher.Publish(eventCtx, event.EventType, event.AggregateID, json.RawMessage(event.EventData)); err != nil {
				log.Error().Err(err).
					Str("aggregate_id", event.AggregateID).
					Int("aggregate_version", event.AggregateVersion).
					Msg("Failed to republish audit event")
				continue
			}
			republished++
		}

		log.Info().
			Int("total", len(events)).
			Int("republished", republished).
			Msg("Republish complete")
		return nil
	},
}

func init() {
	republishEventsCmd.Flags().StringVar(&republishFrom, "from", "", "start of the time range (RFC 3339)")
	republishEventsCmd.Flags().StringVar(&republishTo, "to", "", "end of the time range (RFC 3339), defaults to now")
	_ = republishEventsCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(republishEventsCmd)
}
