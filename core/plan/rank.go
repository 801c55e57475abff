package plan

import (
	"sort"
	"strings"

	"github.com/kilianp07/meterplan/core/model"
)

// unnumberedSentinel sorts addresses without a leading house number behind
// all numbered ones on the same street.
const unnumberedSentinel = 999999

// houseKey is the parsed form of a free-text house number: a leading digit
// run and the lowercased remainder used as a tie breaker.
type houseKey struct {
	number int
	suffix string
}

// parseHouseNo splits "12B" into (12, "b"). Text without a leading digit run
// keeps the sentinel number and the whole trimmed lowercased string as suffix.
func parseHouseNo(raw string) houseKey {
	trimmed := strings.TrimSpace(raw)
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 {
		return houseKey{number: unnumberedSentinel, suffix: strings.ToLower(trimmed)}
	}
	number := 0
	for _, c := range trimmed[:i] {
		number = number*10 + int(c-'0')
	}
	return houseKey{number: number, suffix: strings.ToLower(strings.TrimSpace(trimmed[i:]))}
}

type rankKey struct {
	priority int
	street   string
	house    houseKey
}

func addressKey(a model.Address, priorities map[string]int) rankKey {
	street := strings.ToLower(a.Street)
	return rankKey{
		priority: priorities[street],
		street:   street,
		house:    parseHouseNo(a.HouseNo),
	}
}

func (k rankKey) less(o rankKey) bool {
	// Higher priority first; the negation from the sort key (-priority, ...)
	// is expressed directly.
	if k.priority != o.priority {
		return k.priority > o.priority
	}
	if k.street != o.street {
		return k.street < o.street
	}
	if k.house.number != o.house.number {
		return k.house.number < o.house.number
	}
	return k.house.suffix < o.house.suffix
}

// RankAddresses returns a new slice ordered by (-priority, street, house
// number, house suffix). Streets missing from priorities default to 0. The
// order is total and deterministic, so repeated runs over the same snapshot
// agree.
func RankAddresses(addresses []model.Address, priorities map[string]int) []model.Address {
	type ranked struct {
		addr model.Address
		key  rankKey
	}
	tmp := make([]ranked, len(addresses))
	for i, a := range addresses {
		tmp[i] = ranked{addr: a, key: addressKey(a, priorities)}
	}
	sort.SliceStable(tmp, func(i, j int) bool { return tmp[i].key.less(tmp[j].key) })
	out := make([]model.Address, len(tmp))
	for i, r := range tmp {
		out[i] = r.addr
	}
	return out
}
