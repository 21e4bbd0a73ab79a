package params

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Market holds the engine's construction-time parameters. They are
// read once at startup and immutable afterwards.
type Market struct {
	Symbol string
	// StepSize is the minimum price increment (reserved for tick
	// validation).
	StepSize decimal.Decimal
	// PricePrecision is the number of decimal places prices carry and
	// fees are rounded to.
	PricePrecision int32
	MakerFeeRate   decimal.Decimal
	TakerFeeRate   decimal.Decimal
}

// Node holds process-level settings: transport, persistence, fan-out.
type Node struct {
	APIAddr string
	DataDir string
	WALPath string
	LogFile string

	// KafkaBrokers empty disables the trade broadcaster.
	KafkaBrokers []string
	KafkaTopic   string
}

type Config struct {
	Market Market
	Node   Node
}

func Default() Config {
	return Config{
		Market: Market{
			Symbol:         "BTC-USDT",
			StepSize:       decimal.New(1, -2), // 0.01
			PricePrecision: 2,
			MakerFeeRate:   decimal.New(1, -3), // 0.001
			TakerFeeRate:   decimal.New(2, -3), // 0.002
		},
		Node: Node{
			APIAddr:    ":8080",
			DataDir:    "data",
			WALPath:    "data/orders.wal",
			LogFile:    "data/engine.log",
			KafkaTopic: "trades",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("MARKET_SYMBOL"); v != "" {
		cfg.Market.Symbol = v
	}
	if v := os.Getenv("MARKET_STEP_SIZE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			cfg.Market.StepSize = d
		}
	}
	if v := os.Getenv("MARKET_PRICE_PRECISION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Market.PricePrecision = int32(n)
		}
	}
	if v := os.Getenv("MAKER_FEE_RATE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			cfg.Market.MakerFeeRate = d
		}
	}
	if v := os.Getenv("TAKER_FEE_RATE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			cfg.Market.TakerFeeRate = d
		}
	}

	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Node.APIAddr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Node.DataDir = v
	}
	if v := os.Getenv("WAL_PATH"); v != "" {
		cfg.Node.WALPath = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Node.LogFile = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		// Comma-separated list, e.g. "broker1:9092,broker2:9092".
		cfg.Node.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Node.KafkaTopic = v
	}

	return cfg
}
