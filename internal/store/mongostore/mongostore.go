// Package mongostore persists every collection in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"careops/backend/internal/db"
	"careops/backend/internal/models"
	"careops/backend/internal/store"
)

const (
	contactsCollection  = "contacts"
	bookingsCollection  = "bookings"
	inventoryCollection = "inventory"
	alertsCollection    = "alerts"
	messagesCollection  = "messages"
	usersCollection     = "users"
)

// New returns a Store backed by the given database. Call EnsureIndexes once at startup.
func New(database *mongo.Database) *store.Store {
	return &store.Store{
		Contacts:  &contactStore{coll: database.Collection(contactsCollection)},
		Bookings:  &bookingStore{coll: database.Collection(bookingsCollection)},
		Inventory: &inventoryStore{coll: database.Collection(inventoryCollection)},
		Alerts:    &alertStore{coll: database.Collection(alertsCollection)},
		Messages:  &messageStore{coll: database.Collection(messagesCollection)},
		Users:     &userStore{coll: database.Collection(usersCollection)},
	}
}

// EnsureIndexes creates the unique and lookup indexes the stores rely on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		inventoryCollection: {
			{Keys: bson.D{{Key: "item_name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		alertsCollection: {
			{
				Keys: bson.D{{Key: "type", Value: 1}, {Key: "reference_type", Value: 1}, {Key: "reference_id", Value: 1}},
				Options: options.Index().
					SetName("active_alert_key").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{
						"is_dismissed": false,
						"reference_id": bson.M{"$exists": true},
					}),
			},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		bookingsCollection: {
			{Keys: bson.D{{Key: "contact_id", Value: 1}}},
			{Keys: bson.D{{Key: "start_time", Value: 1}}},
		},
		messagesCollection: {
			{Keys: bson.D{{Key: "contact_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		contactsCollection: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}
	for name, idx := range specs {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case db.IsMongoDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

func pageOpts(p store.Page) *options.FindOptions {
	opts := options.Find()
	if p.Skip > 0 {
		opts.SetSkip(int64(p.Skip))
	}
	if p.Limit > 0 {
		opts.SetLimit(int64(p.Limit))
	}
	return opts
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	var v T
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

// insert writes doc once. A retry that collides with the document itself is
// treated as the earlier attempt having committed.
func insert(ctx context.Context, coll *mongo.Collection, doc models.IBase) error {
	err := db.TryInsert(func() error {
		_, err := coll.InsertOne(ctx, doc)
		return err
	}, func() (bool, error) {
		n, err := coll.CountDocuments(ctx, bson.M{"_id": doc.GetID()})
		return n > 0, err
	})
	return mapErr(err)
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- contacts ---

type contactStore struct{ coll *mongo.Collection }

func (s *contactStore) Insert(ctx context.Context, c *models.Contact) error {
	c.GenIDIfEmpty()
	return insert(ctx, s.coll, c)
}

func (s *contactStore) Get(ctx context.Context, id string) (*models.Contact, error) {
	return findByID[models.Contact](ctx, s.coll, id)
}

func (s *contactStore) List(ctx context.Context, page store.Page) ([]models.Contact, error) {
	return findAll[models.Contact](ctx, s.coll, bson.M{}, pageOpts(page).SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (s *contactStore) Replace(ctx context.Context, c *models.Contact) error {
	return replace(ctx, s.coll, c.ID, c)
}

func (s *contactStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete contact %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *contactStore) Count(ctx context.Context, createdSince *time.Time) (int64, error) {
	filter := bson.M{}
	if createdSince != nil {
		filter["created_at"] = bson.M{"$gte": *createdSince}
	}
	return s.coll.CountDocuments(ctx, filter)
}

// --- bookings ---

type bookingStore struct{ coll *mongo.Collection }

func bookingQuery(f store.BookingFilter) bson.M {
	q := bson.M{}
	if f.Status != nil {
		q["status"] = *f.Status
	} else if len(f.Statuses) > 0 {
		q["status"] = bson.M{"$in": f.Statuses}
	}
	start := bson.M{}
	if f.StartFrom != nil {
		start["$gte"] = *f.StartFrom
	}
	if f.StartBefore != nil {
		start["$lt"] = *f.StartBefore
	}
	if len(start) > 0 {
		q["start_time"] = start
	}
	return q
}

func (s *bookingStore) Insert(ctx context.Context, b *models.Booking) error {
	b.GenIDIfEmpty()
	return insert(ctx, s.coll, b)
}

func (s *bookingStore) Get(ctx context.Context, id string) (*models.Booking, error) {
	return findByID[models.Booking](ctx, s.coll, id)
}

func (s *bookingStore) List(ctx context.Context, f store.BookingFilter) ([]models.Booking, error) {
	return findAll[models.Booking](ctx, s.coll, bookingQuery(f), pageOpts(f.Page).SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (s *bookingStore) Replace(ctx context.Context, b *models.Booking) error {
	return replace(ctx, s.coll, b.ID, b)
}

func (s *bookingStore) DeleteByContact(ctx context.Context, contactID string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"contact_id": contactID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings of contact %s: %w", contactID, err)
	}
	return res.DeletedCount, nil
}

func (s *bookingStore) Count(ctx context.Context, f store.BookingFilter) (int64, error) {
	return s.coll.CountDocuments(ctx, bookingQuery(f))
}

// --- inventory ---

type inventoryStore struct{ coll *mongo.Collection }

var lowStockQuery = bson.M{"$expr": bson.M{"$lt": bson.A{"$quantity", "$threshold"}}}

func (s *inventoryStore) Insert(ctx context.Context, item *models.InventoryItem) error {
	item.GenIDIfEmpty()
	return insert(ctx, s.coll, item)
}

func (s *inventoryStore) Get(ctx context.Context, id string) (*models.InventoryItem, error) {
	return findByID[models.InventoryItem](ctx, s.coll, id)
}

func (s *inventoryStore) List(ctx context.Context, page store.Page) ([]models.InventoryItem, error) {
	return findAll[models.InventoryItem](ctx, s.coll, bson.M{}, pageOpts(page).SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (s *inventoryStore) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	return findAll[models.InventoryItem](ctx, s.coll, lowStockQuery, options.Find().SetSort(bson.D{{Key: "quantity", Value: 1}}))
}

func (s *inventoryStore) Replace(ctx context.Context, item *models.InventoryItem) error {
	return replace(ctx, s.coll, item.ID, item)
}

func (s *inventoryStore) Count(ctx context.Context, lowStockOnly bool) (int64, error) {
	if lowStockOnly {
		return s.coll.CountDocuments(ctx, lowStockQuery)
	}
	return s.coll.CountDocuments(ctx, bson.M{})
}

// --- alerts ---

type alertStore struct{ coll *mongo.Collection }

func alertQuery(f store.AlertFilter) bson.M {
	q := bson.M{}
	if !f.IncludeDismissed {
		q["is_dismissed"] = false
	}
	if f.Type != nil {
		q["type"] = *f.Type
	}
	if f.Severity != nil {
		q["severity"] = *f.Severity
	}
	return q
}

func (s *alertStore) Insert(ctx context.Context, a *models.Alert) error {
	a.GenIDIfEmpty()
	return insert(ctx, s.coll, a)
}

func (s *alertStore) Get(ctx context.Context, id string) (*models.Alert, error) {
	return findByID[models.Alert](ctx, s.coll, id)
}

func (s *alertStore) FindActive(ctx context.Context, key models.AlertKey) (*models.Alert, error) {
	var a models.Alert
	err := s.coll.FindOne(ctx, bson.M{
		"type":           key.Type,
		"reference_type": key.ReferenceType,
		"reference_id":   key.ReferenceID,
		"is_dismissed":   false,
	}).Decode(&a)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *alertStore) List(ctx context.Context, f store.AlertFilter) ([]models.Alert, error) {
	return findAll[models.Alert](ctx, s.coll, alertQuery(f), pageOpts(f.Page).SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *alertStore) Count(ctx context.Context, f store.AlertFilter) (int64, error) {
	return s.coll.CountDocuments(ctx, alertQuery(f))
}

func (s *alertStore) Dismiss(ctx context.Context, id string, at time.Time) (*models.Alert, error) {
	var a models.Alert
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_dismissed": false},
		bson.M{"$set": bson.M{"is_dismissed": true, "dismissed_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// either unknown or already dismissed
		return s.Get(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dismiss alert %s: %w", id, err)
	}
	return &a, nil
}

// --- messages ---

type messageStore struct{ coll *mongo.Collection }

func messageQuery(f store.MessageFilter) bson.M {
	q := bson.M{}
	if f.ContactID != nil {
		q["contact_id"] = *f.ContactID
	}
	if f.Direction != nil {
		q["direction"] = *f.Direction
	}
	return q
}

func (s *messageStore) Insert(ctx context.Context, m *models.Message) error {
	m.GenIDIfEmpty()
	return insert(ctx, s.coll, m)
}

func (s *messageStore) Replace(ctx context.Context, m *models.Message) error {
	return replace(ctx, s.coll, m.ID, m)
}

func (s *messageStore) Get(ctx context.Context, id string) (*models.Message, error) {
	return findByID[models.Message](ctx, s.coll, id)
}

func (s *messageStore) List(ctx context.Context, f store.MessageFilter) ([]models.Message, error) {
	return findAll[models.Message](ctx, s.coll, messageQuery(f), pageOpts(f.Page).SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *messageStore) Count(ctx context.Context, f store.MessageFilter) (int64, error) {
	return s.coll.CountDocuments(ctx, messageQuery(f))
}

func (s *messageStore) DeleteByContact(ctx context.Context, contactID string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"contact_id": contactID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages of contact %s: %w", contactID, err)
	}
	return res.DeletedCount, nil
}

var staffReplyQuery = bson.M{
	"direction": models.DirectionOutgoing,
	"staff_id":  bson.M{"$exists": true, "$ne": nil},
}

func (s *messageStore) HasStaffReply(ctx context.Context, contactID string) (bool, error) {
	q := bson.M{"contact_id": contactID}
	for k, v := range staffReplyQuery {
		q[k] = v
	}
	n, err := s.coll.CountDocuments(ctx, q, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check staff replies for contact %s: %w", contactID, err)
	}
	return n > 0, nil
}

func (s *messageStore) CountUnanswered(ctx context.Context) (int64, error) {
	replied, err := s.coll.Distinct(ctx, "contact_id", staffReplyQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to list replied contacts: %w", err)
	}
	return s.coll.CountDocuments(ctx, bson.M{
		"direction":  models.DirectionIncoming,
		"contact_id": bson.M{"$nin": replied},
	})
}

func (s *messageStore) Conversations(ctx context.Context, page store.Page) ([]models.ConversationSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$contact_id"},
			{Key: "last_message", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
			{Key: "message_count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last_message.created_at", Value: -1}}}},
	}
	if page.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: page.Skip}})
	}
	if page.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: page.Limit}})
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate conversations: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.ConversationSummary{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return out, nil
}

// --- users ---

type userStore struct{ coll *mongo.Collection }

func (s *userStore) Insert(ctx context.Context, u *models.User) error {
	u.GenIDIfEmpty()
	return insert(ctx, s.coll, u)
}

func (s *userStore) Get(ctx context.Context, id string) (*models.User, error) {
	return findByID[models.User](ctx, s.coll, id)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}
