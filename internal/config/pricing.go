package config

import (
	"sync/atomic"

	"github.com/crowngraphics/portal/internal/pricing"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PricingTableHolder serves the active pricing table. When a config file is
// set, edits to it are picked up without a restart; invalid edits are ignored.
type PricingTableHolder struct {
	current atomic.Value // holds pricing.Table
}

func NewPricingTableHolder(cfg Config, log *zap.Logger) (*PricingTableHolder, error) {
	holder := &PricingTableHolder{}
	if cfg.PricingConfigFile == "" {
		holder.current.Store(pricing.DefaultTable())
		return holder, nil
	}

	// Size keys such as "8.5x11" contain dots.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(cfg.PricingConfigFile)

	table, err := readPricingTable(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(table)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := readPricingTable(v)
		if err != nil {
			log.Warn("pricing table reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("pricing table reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticPricingTableHolder pins a table, for tests and tools.
func NewStaticPricingTableHolder(table pricing.Table) *PricingTableHolder {
	holder := &PricingTableHolder{}
	holder.current.Store(table)
	return holder
}

func (h *PricingTableHolder) Get() pricing.Table {
	return h.current.Load().(pricing.Table)
}

func readPricingTable(v *viper.Viper) (pricing.Table, error) {
	if err := v.ReadInConfig(); err != nil {
		return pricing.Table{}, err
	}
	var table pricing.Table
	if err := v.UnmarshalKey("pricing", &table); err != nil {
		return pricing.Table{}, err
	}
	if err := pricing.Validate(table); err != nil {
		return pricing.Table{}, err
	}
	return table, nil
}
