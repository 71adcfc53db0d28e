package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"budgetledger/internal/infrastructure/mq"
	"budgetledger/internal/job"

	"github.com/spf13/cobra"
)

var relayPasses int

// relayCmd 把发件箱中待发送的事件发布到 Kafka
var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Publish pending ledger events to Kafka",
	Long: `Publish pending outbox rows to the ledger events topic.

Rows that fail are retried on the next run until outbox.max_retry_count,
after which they are marked FAILED.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		if !cfg.Kafka.Enabled {
			return errors.New("kafka is disabled, set kafka.enabled to relay events")
		}
		publisher, err := mq.NewKafkaPublisher(&cfg.Kafka)
		if err != nil {
			return err
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				slog.Warn("close kafka producer", "err", err)
			}
		}()

		relay := job.NewOutboxRelay(db, publisher, &cfg.Outbox)
		var total job.RelayStats
		for i := 0; i < relayPasses; i++ {
			stats, err := relay.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			total.Sent += stats.Sent
			total.Retry += stats.Retry
			total.Failed += stats.Failed
			// 有失败或本批不满时留到下次运行
			if stats.Retry+stats.Failed > 0 || stats.Sent < cfg.Outbox.BatchSize {
				break
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "relay: sent=%d retry=%d failed=%d\n", total.Sent, total.Retry, total.Failed)
		return nil
	},
}

func init() {
	relayCmd.Flags().IntVar(&relayPasses, "passes", 10, "maximum number of batches to publish")
	rootCmd.AddCommand(relayCmd)
}
