package marketdata

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/optbench/options-workbench/internal/store"
	"github.com/optbench/options-workbench/pkg/metrics"
	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

// Config for the chain consumer
type Config struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// chainMessage is the JSON wire format of one chain update
type chainMessage struct {
	Symbol     string         `json:"symbol"`
	Expiration time.Time      `json:"expiration"`
	Spot       float64        `json:"spot"`
	Quotes     []quoteMessage `json:"quotes"`
}

type quoteMessage struct {
	Strike     float64 `json:"strike"`
	Side       string  `json:"side"`
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	Mid        float64 `json:"mid"`
	Last       float64 `json:"last"`
	ImpliedVol float64 `json:"implied_vol,omitempty"`
}

// Consumer reads option chain updates off Kafka and applies them to the
// chain store. It is the only bridge between the market-data layer and
// the otherwise pure engine.
type Consumer struct {
	reader   *kafka.Reader
	store    *store.ChainStore
	recorder *metrics.Recorder
	onUpdate func(symbol string)
	log      *logger.Logger
}

// NewConsumer creates a consumer for the given topic
func NewConsumer(cfg Config, chains *store.ChainStore, recorder *metrics.Recorder) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		}),
		store:    chains,
		recorder: recorder,
		log:      logger.GetLogger("marketdata.consumer"),
	}
}

// OnUpdate registers a callback invoked after each applied chain update
func (c *Consumer) OnUpdate(fn func(symbol string)) {
	c.onUpdate = fn
}

// Run consumes until the context is canceled. Malformed messages are
// logged and skipped; they never stop the loop.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Infof("starting chain consumer for topic %s", c.reader.Config().Topic)

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("chain consumer stopped")
				return nil
			}
			return err
		}

		var cm chainMessage
		if err := json.Unmarshal(msg.Value, &cm); err != nil {
			c.log.Warnf("dropping malformed chain message at offset %d: %v", msg.Offset, err)
			continue
		}

		chain := toChain(cm)
		if err := c.store.SaveChain(chain); err != nil {
			c.log.Warnf("dropping chain update for %q: %v", cm.Symbol, err)
			continue
		}

		if c.recorder != nil {
			c.recorder.RecordChainUpdate(chain.Symbol)
		}
		if c.onUpdate != nil {
			c.onUpdate(chain.Symbol)
		}
	}
}

// Close releases the underlying Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func toChain(cm chainMessage) models.OptionChain {
	chain := models.OptionChain{
		Symbol:     cm.Symbol,
		Expiration: cm.Expiration,
		Spot:       cm.Spot,
		Quotes:     make([]models.OptionQuote, 0, len(cm.Quotes)),
	}
	for _, q := range cm.Quotes {
		side := models.LegCall
		if strings.EqualFold(q.Side, "put") {
			side = models.LegPut
		}
		chain.Quotes = append(chain.Quotes, models.OptionQuote{
			Strike:          q.Strike,
			Side:            side,
			Bid:             q.Bid,
			Ask:             q.Ask,
			Mid:             q.Mid,
			Last:            q.Last,
			ImpliedVol:      q.ImpliedVol,
			UnderlyingPrice: cm.Spot,
		})
	}
	return chain
}
