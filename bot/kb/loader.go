package kb

import (
	"embed"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrLoad marks a knowledge base that could not be read or parsed. A load
// failure is fatal at startup: the bot must not serve traffic on a partially
// loaded knowledge base.
var ErrLoad = errors.New("knowledge base load failed")

//go:embed data/default.json
var defaultData embed.FS

// JSON file schema. Field names follow the production data file; pricing and
// hours keep their original French keys.
type kbFile struct {
	Intents []intentFile `json:"intents"`
	Routing struct {
		Order []string `json:"order"`
	} `json:"routing"`
	Entities         []entityGroupFile `json:"entities"`
	VariableDefaults map[string]string `json:"variables_defaults"`
	Pricing          struct {
		Monozone []zonePriceFile `json:"monozone"`
	} `json:"tarifs"`
	Hours map[string]hoursFile `json:"horaires"`
}

type intentFile struct {
	ID       string   `json:"id"`
	Patterns []string `json:"patterns"`
	Enrich   []string `json:"enrich,omitempty"`
	Response struct {
		Templates    map[string]string `json:"templates"`
		QuickReplies []string          `json:"quick_replies"`
	} `json:"response"`
}

type entityGroupFile struct {
	Type   string   `json:"type"`
	Values []string `json:"values"`
}

type zonePriceFile struct {
	Zone  string  `json:"zone"`
	Price float64 `json:"prix"`
}

type hoursFile struct {
	Weekday  string `json:"lun_ven"`
	Saturday string `json:"sam"`
}

// Load reads and parses a knowledge base. It fails with ErrLoad on malformed
// input; there is no partial load. Malformed regex patterns do NOT fail the
// load: they are logged and treated as non-matching so one bad entry cannot
// take the whole pipeline down. Call KB.Validate to fail fast instead.
func Load(r io.Reader) (*KB, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(ErrLoad, err.Error())
	}
	var f kbFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(ErrLoad, err.Error())
	}
	if len(f.Intents) == 0 {
		return nil, errors.Wrap(ErrLoad, "no intents defined")
	}

	k := &KB{
		RoutingOrder:     f.Routing.Order,
		VariableDefaults: f.VariableDefaults,
		pricing:          make(map[string]float64, len(f.Pricing.Monozone)),
		hoursByCity:      make(map[string]Hours, len(f.Hours)),
		intentByID:       make(map[string]*Intent, len(f.Intents)),
	}
	if k.VariableDefaults == nil {
		k.VariableDefaults = map[string]string{}
	}

	for _, fi := range f.Intents {
		it := Intent{
			ID:       fi.ID,
			Patterns: fi.Patterns,
			Enrich:   fi.Enrich,
			Response: Response{
				Templates:    make(map[Locale]string, len(fi.Response.Templates)),
				QuickReplies: fi.Response.QuickReplies,
			},
			compiled: make([]*regexp.Regexp, len(fi.Patterns)),
		}
		for loc, tpl := range fi.Response.Templates {
			it.Response.Templates[Locale(loc)] = tpl
		}
		for i, p := range fi.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				slog.Warn("skipping invalid intent pattern",
					"intent", fi.ID, "pattern", p, "error", err)
				continue
			}
			it.compiled[i] = re
		}
		k.Intents = append(k.Intents, it)
	}
	for i := range k.Intents {
		k.intentByID[k.Intents[i].ID] = &k.Intents[i]
	}

	for _, g := range f.Entities {
		k.Entities = append(k.Entities, EntityGroup{Type: g.Type, Values: g.Values})
	}
	for _, zp := range f.Pricing.Monozone {
		k.pricing[strings.ToLower(zp.Zone)] = zp.Price
	}
	for city, h := range f.Hours {
		k.hoursByCity[city] = Hours{Weekday: h.Weekday, Saturday: h.Saturday}
	}

	slog.Info("knowledge base loaded",
		"intents", len(k.Intents),
		"entity_types", len(k.Entities),
		"zones_priced", len(k.pricing),
		"cities", len(k.hoursByCity))
	return k, nil
}

// LoadFile loads a knowledge base from a JSON file on disk.
func LoadFile(path string) (*KB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(ErrLoad, err.Error())
	}
	defer f.Close()
	return Load(f)
}

// LoadDefault loads the embedded default knowledge base.
func LoadDefault() (*KB, error) {
	f, err := defaultData.Open("data/default.json")
	if err != nil {
		return nil, errors.Wrap(ErrLoad, err.Error())
	}
	defer f.Close()
	return Load(f)
}
