// Package id generates backtest run identifiers and deterministic trade keys.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

// tradeNamespace scopes UUIDv5 trade keys to this application.
var tradeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("momentum/trade"))

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Monotonic keeps IDs from the same millisecond increasing.
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string for a backtest run. ULIDs sort by creation time.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// Time extracts the creation time encoded in a run id.
func Time(s string) (time.Time, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()), nil
}

// Trade holds the fields that identify a closed trade. Size and prices are
// included so runs with a different balance or risk keep separate rows.
type Trade struct {
	Symbol     string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Size       int
	Reason     string
}

// TradeKey derives a stable key for a closed trade. The same trade
// produced by a repeated run always yields the same key.
func TradeKey(t Trade) string {
	name := strings.Join([]string{
		strings.ToUpper(t.Symbol),
		t.EntryTime.UTC().Format(time.RFC3339Nano),
		t.ExitTime.UTC().Format(time.RFC3339Nano),
		strconv.FormatFloat(t.EntryPrice, 'g', -1, 64),
		strconv.FormatFloat(t.ExitPrice, 'g', -1, 64),
		strconv.Itoa(t.Size),
		t.Reason,
	}, "|")
	return uuid.NewSHA1(tradeNamespace, []byte(name)).String()
}
