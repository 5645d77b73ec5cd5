package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poll loop metrics
	PollCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "otpbot_poll_cycles_total",
			Help: "Total completed poll cycles",
		},
	)

	MessagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "otpbot_messages_processed_total",
			Help: "Total inbox messages processed",
		},
	)

	CodesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otpbot_codes_extracted_total",
			Help: "Total passcodes extracted, by origin strategy",
		},
		[]string{"origin"},
	)

	// Failure metrics
	FetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "otpbot_fetch_failures_total",
			Help: "Total failed inbox fetches",
		},
	)

	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "otpbot_delivery_failures_total",
			Help: "Total failed chat deliveries",
		},
	)

	DeleteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "otpbot_delete_failures_total",
			Help: "Total failed upstream message deletions",
		},
	)

	// Provisioning metrics
	AccountsProvisioned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "otpbot_accounts_provisioned_total",
			Help: "Total mailboxes provisioned",
		},
	)

	KeysRedeemed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "otpbot_keys_redeemed_total",
			Help: "Total license keys redeemed",
		},
	)
)
