package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/form3tech-oss/pact-contracts/internal/app/contract"
	log "github.com/sirupsen/logrus"
)

// Record is a stored interaction and the id it was stored under.
type Record struct {
	ID          string
	Interaction *contract.Interaction
}

// Catalog keeps interactions keyed by their hash. Equal interactions share
// one entry. Safe for concurrent use.
type Catalog struct {
	interactions sync.Map
}

func ID(i *contract.Interaction) string {
	return fmt.Sprintf("%016x", i.Hash())
}

// Store adds i and returns its id. duplicate reports that an equal
// interaction was already stored. Distinct interactions with the same hash
// get a numbered suffix.
func (c *Catalog) Store(i *contract.Interaction) (id string, duplicate bool) {
	base := ID(i)
	for n := 0; ; n++ {
		id = base
		if n > 0 {
			id = base + "-" + strconv.Itoa(n)
		}

		actual, loaded := c.interactions.LoadOrStore(id, i)
		if !loaded {
			return id, false
		}
		if actual.(*contract.Interaction).Equal(i) {
			return id, true
		}
		log.Warnf("hash collision between '%s' and '%s'", actual.(*contract.Interaction).Name(), i.Name())
	}
}

func (c *Catalog) Load(id string) (*contract.Interaction, bool) {
	result, ok := c.interactions.Load(id)
	if !ok {
		return nil, false
	}
	return result.(*contract.Interaction), true
}

// All returns every record ordered by id.
func (c *Catalog) All() []Record {
	var records []Record
	c.interactions.Range(func(k, v interface{}) bool {
		records = append(records, Record{ID: k.(string), Interaction: v.(*contract.Interaction)})
		return true
	})
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

func (c *Catalog) Clear() {
	c.interactions.Range(func(k, _ interface{}) bool {
		c.interactions.Delete(k)
		return true
	})
}
