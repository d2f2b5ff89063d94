// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, step := range []struct {
		coll string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"territories", ensureTerritories},
		{"accounts", ensureAccounts},
		{"contacts", ensureContacts},
		{"leads", ensureLeads},
		{"deals", ensureDeals},
		{"quotes", ensureQuotes},
		{"activities", ensureActivities},
		{"audit_logs", ensureAuditLogs},
	} {
		if err := step.fn(ctx, db); err != nil {
			problems = append(problems, step.coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// createErr explains a failed unique-index build, since the usual cause is
// duplicate data that an operator has to clean up by hand.
func createErr(coll *mongo.Collection, name, sig string, unique bool, err error) string {
	if unique && isDuplicateKeyErr(err) {
		field := strings.SplitN(sig, ":", 2)[0]
		return fmt.Sprintf("%s(%s): cannot create unique index (duplicates present). Example finder:\n"+
			`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
			coll.Name(), name, coll.Name(), field)
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), name, err)
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listIndexes(ctx, coll)

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(unique)))

		if ex, ok := existing[sig]; ok {
			if isUnique(unique) == isUnique(ex.Unique) && (name == "" || ex.Name == name) {
				log.Debug("reusing existing index")
				continue
			}
			// Options or name differ (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			errs = append(errs, createErr(coll, name, sig, isUnique(unique), err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func idx(name string, keys ...string) mongo.IndexModel {
	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		dir := 1
		if strings.HasPrefix(k, "-") {
			k, dir = k[1:], -1
		}
		d = append(d, bson.E{Key: k, Value: dir})
	}
	return mongo.IndexModel{Keys: d, Options: options.Index().SetName(name)}
}

func uniq(name string, keys ...string) mongo.IndexModel {
	m := idx(name, keys...)
	m.Options.SetUnique(true)
	return m
}

// ownership indexes back the scoping filters; every scoped list is an $or
// over these fields.
func ownership(prefix string) []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_"+prefix+"_assigned_to", "assigned_to"),
		idx("idx_"+prefix+"_created_by", "created_by"),
	}
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Email must be unique across all users
		uniq("uniq_users_email", "email"),
		// Team lookup: SALES users in a set of territories
		idx("idx_users_role_territory", "role", "territory_id"),
		// Users list
		idx("idx_users_role_status_fullnameci_id", "role", "status", "full_name_ci", "_id"),
	})
}

func ensureTerritories(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("territories"), []mongo.IndexModel{
		uniq("uniq_territories_nameci", "name_ci"),
		idx("idx_territories_manager", "manager_id"),
	})
}

func ensureAccounts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("accounts"), append([]mongo.IndexModel{
		// Account names are globally unique; lead conversion relies on this.
		uniq("uniq_accounts_name", "name"),
		idx("idx_accounts_territory", "territory_id"),
		idx("idx_accounts_nameci_id", "name_ci", "_id"),
	}, ownership("accounts")...))
}

func ensureContacts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("contacts"), append([]mongo.IndexModel{
		idx("idx_contacts_account", "account_id"),
		idx("idx_contacts_nameci_id", "name_ci", "_id"),
	}, ownership("contacts")...))
}

func ensureLeads(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("leads"), append([]mongo.IndexModel{
		idx("idx_leads_status_nameci_id", "status", "name_ci", "_id"),
		idx("idx_leads_territory", "territory_id"),
	}, ownership("leads")...))
}

func ensureDeals(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("deals"), append([]mongo.IndexModel{
		uniq("uniq_deals_number", "deal_number"),
		idx("idx_deals_account", "account_id"),
		idx("idx_deals_stage_close", "stage", "close_date"),
	}, ownership("deals")...))
}

func ensureQuotes(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("quotes"), append([]mongo.IndexModel{
		uniq("uniq_quotes_number", "quote_number"),
		idx("idx_quotes_deal", "deal_id"),
		idx("idx_quotes_account", "account_id"),
	}, ownership("quotes")...))
}

func ensureActivities(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("activities"), []mongo.IndexModel{
		idx("idx_activities_kind_assigned_to", "kind", "assigned_to"),
		idx("idx_activities_kind_created_by", "kind", "created_by"),
		idx("idx_activities_kind_subjectci_id", "kind", "subject_ci", "_id"),
		idx("idx_activities_related_lead", "related_lead_id"),
		idx("idx_activities_related_account", "related_account_id"),
	})
}

func ensureAuditLogs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_logs"), []mongo.IndexModel{
		idx("idx_audit_timestamp", "-timestamp"),
		idx("idx_audit_event_timestamp", "event_type", "-timestamp"),
		idx("idx_audit_target", "target_id"),
	})
}
