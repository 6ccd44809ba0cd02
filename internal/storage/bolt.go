package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/llm"
	"codeberg.org/qemxa/server/internal/quota"
	"codeberg.org/qemxa/server/internal/tiers"
	"codeberg.org/qemxa/server/qemxa/partners"
	"codeberg.org/qemxa/server/qemxa/vehicles"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	chatsBucket    = []byte("chats")
	profilesBucket = []byte("profiles")
	vehiclesBucket = []byte("vehicles")
	partnersBucket = []byte("partners")
)

// Store in a single bbolt file, for local runs without Postgres. chats
// and vehicles are keyed by "vin|user_id", partners by "user_id|id".
type BoltGateway struct {
	db  *bolt.DB
	now func() time.Time
}

type boltProfile struct {
	ID               string             `json:"id"`
	Tier             tiers.Tier         `json:"tier"`
	DailyUsage       quota.UsageCounter `json:"dailyUsage"`
	StripeCustomerID string             `json:"stripe_customer_id,omitempty"`
}

func NewBoltGateway(path string) (*BoltGateway, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating bolt directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{chatsBucket, profilesBucket, vehiclesBucket, partnersBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		db.Close() //nolint:errcheck,gosec
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltGateway{db: db, now: time.Now}, nil
}

// the file is local, a read transaction proves it is still open
func (g *BoltGateway) Ping(_ context.Context) error {
	return g.db.View(func(*bolt.Tx) error { return nil })
}

func (g *BoltGateway) Close() error {
	return g.db.Close()
}

func compositeKey(a, b string) []byte {
	return []byte(a + "|" + b)
}

func getJSON(tx *bolt.Tx, bucket, key []byte, v any) (bool, error) {
	raw := tx.Bucket(bucket).Get(key)
	if raw == nil {
		return false, nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", bucket, err)
	}

	return true, nil
}

func putJSON(tx *bolt.Tx, bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", bucket, err)
	}

	return tx.Bucket(bucket).Put(key, data)
}

func (g *BoltGateway) LoadSession(_ context.Context, key chat.SessionKey) (*chat.Session, error) {
	var sess chat.Session

	err := g.db.View(func(tx *bolt.Tx) error {
		found, err := getJSON(tx, chatsBucket, compositeKey(key.VIN, key.UserID), &sess)
		if err != nil {
			return err
		}

		if !found {
			return chat.ErrSessionNotFound
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

// writes the message list, keeping any stored service history
func (g *BoltGateway) SaveHistory(_ context.Context, key chat.SessionKey, h history.History) error {
	return g.db.Update(func(tx *bolt.Tx) error {
		k := compositeKey(key.VIN, key.UserID)

		sess := chat.Session{VIN: key.VIN, UserID: key.UserID}
		if _, err := getJSON(tx, chatsBucket, k, &sess); err != nil {
			return err
		}

		sess.History = h
		if sess.History == nil {
			sess.History = history.History{}
		}

		return putJSON(tx, chatsBucket, k, sess)
	})
}

// returns the profile, creating a free one on first access
func (g *BoltGateway) GetProfile(_ context.Context, userID string) (*chat.Profile, error) {
	var p boltProfile

	err := g.db.Update(func(tx *bolt.Tx) error {
		found, err := getJSON(tx, profilesBucket, []byte(userID), &p)
		if err != nil || found {
			return err
		}

		p = boltProfile{ID: userID, Tier: tiers.Free}

		return putJSON(tx, profilesBucket, []byte(userID), p)
	})
	if err != nil {
		return nil, err
	}

	return &chat.Profile{
		ID:               p.ID,
		Tier:             tiers.FromStored(string(p.Tier)),
		DailyUsage:       p.DailyUsage,
		StripeCustomerID: p.StripeCustomerID,
	}, nil
}

func (g *BoltGateway) updateProfile(userID string, fn func(p *boltProfile)) error {
	return g.db.Update(func(tx *bolt.Tx) error {
		p := boltProfile{ID: userID, Tier: tiers.Free}
		if _, err := getJSON(tx, profilesBucket, []byte(userID), &p); err != nil {
			return err
		}

		fn(&p)

		return putJSON(tx, profilesBucket, []byte(userID), p)
	})
}

func (g *BoltGateway) SaveUsage(_ context.Context, userID string, usage quota.UsageCounter) error {
	return g.updateProfile(userID, func(p *boltProfile) { p.DailyUsage = usage })
}

func (g *BoltGateway) SetTier(_ context.Context, userID string, tier tiers.Tier) error {
	return g.updateProfile(userID, func(p *boltProfile) { p.Tier = tier })
}

func (g *BoltGateway) GetVehicle(_ context.Context, key chat.SessionKey) (*history.VehicleInfo, error) {
	var v vehicles.Vehicle

	err := g.db.View(func(tx *bolt.Tx) error {
		found, err := getJSON(tx, vehiclesBucket, compositeKey(key.VIN, key.UserID), &v)
		if err != nil {
			return err
		}

		if !found {
			return chat.ErrVehicleNotFound
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	info := v.Info()

	return &info, nil
}

func (g *BoltGateway) ListVehicles(_ context.Context, userID string) ([]vehicles.Vehicle, error) {
	var out []vehicles.Vehicle

	err := g.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(vehiclesBucket).ForEach(func(_, raw []byte) error {
			var v vehicles.Vehicle
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("decoding vehicle: %w", err)
			}

			if v.UserID == userID {
				out = append(out, v)
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

// registers a vehicle if the owner's tier allows another one. the count
// and insert share one write transaction.
func (g *BoltGateway) CreateVehicle(ctx context.Context, userID string, req vehicles.CreateVehicleRequest) (*vehicles.Vehicle, error) {
	req, err := vehicles.Decode(req)
	if err != nil {
		return nil, err
	}

	profile, err := g.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	v := vehicles.Vehicle{
		VIN:       req.VIN,
		UserID:    userID,
		Brand:     req.Brand,
		Model:     req.Model,
		Year:      req.Year,
		CreatedAt: g.now().UTC(),
	}

	err = g.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(vehiclesBucket)
		k := compositeKey(v.VIN, userID)

		if b.Get(k) != nil {
			return vehicles.ErrVehicleExists
		}

		count := 0
		err := b.ForEach(func(_, raw []byte) error {
			var existing vehicles.Vehicle
			if err := json.Unmarshal(raw, &existing); err != nil {
				return err
			}

			if existing.UserID == userID {
				count++
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("counting vehicles: %w", err)
		}

		if !tiers.CanAddVehicle(profile.Tier, count) {
			return vehicles.ErrVehicleLimitReached
		}

		return putJSON(tx, vehiclesBucket, k, v)
	})
	if err != nil {
		return nil, err
	}

	return &v, nil
}

func (g *BoltGateway) ListPartnerProfiles(_ context.Context, userID string) ([]partners.Profile, error) {
	var out []partners.Profile

	err := g.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(partnersBucket).Cursor()
		prefix := []byte(userID + "|")

		for k, raw := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, raw = c.Next() {
			var p partners.Profile
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("decoding partner: %w", err)
			}

			out = append(out, p)
		}

		return nil
	})

	return out, err
}

func (g *BoltGateway) ListPartners(ctx context.Context, userID string) ([]llm.PartnerSummary, error) {
	list, err := g.ListPartnerProfiles(ctx, userID)
	if err != nil {
		return nil, err
	}

	return partners.Summaries(list), nil
}

// creates or updates a partner profile. the tier comes from the stored
// record, never from the caller.
func (g *BoltGateway) SavePartnerProfile(_ context.Context, p *partners.Profile) error {
	return g.db.Update(func(tx *bolt.Tx) error {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}

		k := compositeKey(p.UserID, p.ID)

		var stored partners.Profile
		found, err := getJSON(tx, partnersBucket, k, &stored)
		if err != nil {
			return err
		}

		p.Tier = tiers.Free
		if found {
			p.Tier = tiers.FromStored(string(stored.Tier))
		}

		if err := partners.CheckListingLimit(p); err != nil {
			return err
		}

		return putJSON(tx, partnersBucket, k, p)
	})
}
