/*
Package mongo provides a MongoDB-backed document store.

PURPOSE:
  The remote document store. It implements the same contracts as
  store/sqlite: tasks, packages, payment alerts, clients and holidays. Each
  package is one document with embedded line items and milestones.

COLLECTIONS:
  clients, packages, tasks, payment_alerts, holidays

INDEXES (created by EnsureIndexes):
  - tasks(package_id, package_line_item_index): completion counts
  - payment_alerts(idempotency_key) unique, sparse: one alert per transition
  - holidays(date, name) unique

USAGE:
  store, err := mongo.Connect(ctx, "mongodb://localhost:27017", "fulfillment")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close(context.Background())

SEE ALSO:
  - store/sqlite: Default embedded store
*/
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/warp/fulfillment-engine/billing"
	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/schedule"
)

const (
	clientsCollection  = "clients"
	packagesCollection = "packages"
	tasksCollection    = "tasks"
	alertsCollection   = "payment_alerts"
	holidaysCollection = "holidays"
)

// Store implements the storage contracts on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, pings the primary and prepares the indexes.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &Store{client: client, db: client.Database(dbName)}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes the store relies on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		tasksCollection: {
			{Keys: bson.D{{Key: "package_id", Value: 1}, {Key: "package_line_item_index", Value: 1}}},
		},
		alertsCollection: {
			{
				Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
			{Keys: bson.D{{Key: "package_id", Value: 1}, {Key: "triggered_at", Value: 1}}},
		},
		holidaysCollection: {
			{
				Keys:    bson.D{{Key: "date", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		packagesCollection: {
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// Reset drops every document. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	for _, coll := range []string{alertsCollection, tasksCollection, packagesCollection, clientsCollection, holidaysCollection} {
		if _, err := s.db.Collection(coll).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("failed to reset %s: %w", coll, err)
		}
	}
	return nil
}

// =============================================================================
// TASKS
// =============================================================================

// CreateTask inserts a task and returns its generated ID.
func (s *Store) CreateTask(ctx context.Context, task schedule.Task) (string, error) {
	task.ID = uuid.NewString()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.Collection(tasksCollection).InsertOne(ctx, toTaskDoc(task)); err != nil {
		return "", fmt.Errorf("failed to insert task: %w", err)
	}
	return task.ID, nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (schedule.Task, error) {
	var doc taskDoc
	err := s.db.Collection(tasksCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}
	if err != nil {
		return schedule.Task{}, err
	}
	return doc.toTask(), nil
}

// ListTasks returns every task, oldest production date first.
func (s *Store) ListTasks(ctx context.Context) ([]schedule.Task, error) {
	return s.findTasks(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "created_at", Value: 1}}))
}

// ListTasksByPackage returns the tasks referencing packageID.
func (s *Store) ListTasksByPackage(ctx context.Context, packageID string) ([]schedule.Task, error) {
	return s.findTasks(ctx, bson.M{"package_id": packageID}, options.Find().SetSort(bson.D{
		{Key: "package_line_item_index", Value: 1},
		{Key: "start_date", Value: 1},
		{Key: "created_at", Value: 1},
	}))
}

// UpdateTaskStatus sets the workflow status of a task.
func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status schedule.TaskStatus) (schedule.Task, error) {
	var doc taskDoc
	err := s.db.Collection(tasksCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}
	if err != nil {
		return schedule.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return doc.toTask(), nil
}

func (s *Store) findTasks(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]schedule.Task, error) {
	cursor, err := s.db.Collection(tasksCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	var docs []taskDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	tasks := make([]schedule.Task, len(docs))
	for i, d := range docs {
		tasks[i] = d.toTask()
	}
	return tasks, nil
}

// =============================================================================
// PACKAGES
// =============================================================================

// CreatePackage inserts a package and returns its generated ID.
func (s *Store) CreatePackage(ctx context.Context, pkg billing.Package) (string, error) {
	pkg.ID = uuid.NewString()
	if _, err := s.db.Collection(packagesCollection).InsertOne(ctx, toPackageDoc(pkg)); err != nil {
		return "", fmt.Errorf("failed to insert package: %w", err)
	}
	return pkg.ID, nil
}

// GetPackage retrieves a package by ID.
func (s *Store) GetPackage(ctx context.Context, id string) (billing.Package, error) {
	var doc packageDoc
	err := s.db.Collection(packagesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return billing.Package{}, billing.ErrPackageNotFound
	}
	if err != nil {
		return billing.Package{}, err
	}
	return doc.toPackage(), nil
}

// ListPackages returns packages, newest first, optionally for one client.
func (s *Store) ListPackages(ctx context.Context, clientID string) ([]billing.Package, error) {
	filter := bson.M{}
	if clientID != "" {
		filter["client_id"] = clientID
	}
	cursor, err := s.db.Collection(packagesCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query packages: %w", err)
	}
	var docs []packageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	packages := make([]billing.Package, len(docs))
	for i, d := range docs {
		packages[i] = d.toPackage()
	}
	return packages, nil
}

// UpdatePackage sets only the fields present in update.
func (s *Store) UpdatePackage(ctx context.Context, id string, update billing.PackageUpdate) error {
	set := updateDoc(update)
	if len(set) == 0 {
		// Nothing to write, but the package must still exist.
		_, err := s.GetPackage(ctx, id)
		return err
	}
	res, err := s.db.Collection(packagesCollection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update package: %w", err)
	}
	if res.MatchedCount == 0 {
		return billing.ErrPackageNotFound
	}
	return nil
}

// DeletePackage removes a package. Tasks referencing it are untouched.
func (s *Store) DeletePackage(ctx context.Context, id string) error {
	res, err := s.db.Collection(packagesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	if res.DeletedCount == 0 {
		return billing.ErrPackageNotFound
	}
	return nil
}

// =============================================================================
// PAYMENT ALERTS
// =============================================================================

// CreatePaymentAlert records an alert. A repeated idempotency key returns
// billing.ErrDuplicateAlert.
func (s *Store) CreatePaymentAlert(ctx context.Context, alert billing.PaymentAlert) error {
	alert.ID = uuid.NewString()
	_, err := s.db.Collection(alertsCollection).InsertOne(ctx, toAlertDoc(alert))
	if err != nil {
		if isDuplicateKeyError(err) {
			return billing.ErrDuplicateAlert
		}
		return fmt.Errorf("failed to insert payment alert: %w", err)
	}
	return nil
}

// ListPaymentAlerts returns alerts oldest first, optionally for one package.
func (s *Store) ListPaymentAlerts(ctx context.Context, packageID string) ([]billing.PaymentAlert, error) {
	filter := bson.M{}
	if packageID != "" {
		filter["package_id"] = packageID
	}
	cursor, err := s.db.Collection(alertsCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "triggered_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query payment alerts: %w", err)
	}
	var docs []alertDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	alerts := make([]billing.PaymentAlert, len(docs))
	for i, d := range docs {
		alerts[i] = d.toAlert()
	}
	return alerts, nil
}

// =============================================================================
// CLIENTS
// =============================================================================

// CreateClient inserts a client and returns its generated ID.
func (s *Store) CreateClient(ctx context.Context, c billing.Client) (string, error) {
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	doc := clientDoc{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt}
	if _, err := s.db.Collection(clientsCollection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert client: %w", err)
	}
	return c.ID, nil
}

// GetClient retrieves a client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (billing.Client, error) {
	var doc clientDoc
	err := s.db.Collection(clientsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return billing.Client{}, billing.ErrClientNotFound
	}
	if err != nil {
		return billing.Client{}, err
	}
	return doc.toClient(), nil
}

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]billing.Client, error) {
	cursor, err := s.db.Collection(clientsCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []clientDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	clients := make([]billing.Client, len(docs))
	for i, d := range docs {
		clients[i] = d.toClient()
	}
	return clients, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// CreateHoliday upserts a holiday by date and name and returns its ID.
func (s *Store) CreateHoliday(ctx context.Context, h calendar.Holiday) (string, error) {
	var doc holidayDoc
	err := s.db.Collection(holidaysCollection).FindOneAndUpdate(ctx,
		bson.M{"date": h.Date.String(), "name": h.Name},
		bson.M{
			"$set":         bson.M{"recurring": h.Recurring},
			"$setOnInsert": bson.M{"_id": uuid.NewString(), "created_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return "", fmt.Errorf("failed to save holiday: %w", err)
	}
	return doc.ID, nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	res, err := s.db.Collection(holidaysCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return calendar.ErrHolidayNotFound
	}
	return nil
}

// ListHolidays returns all declared holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	cursor, err := s.db.Collection(holidaysCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []holidayDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	holidays := make([]calendar.Holiday, len(docs))
	for i, d := range docs {
		holidays[i] = d.toHoliday()
	}
	return holidays, nil
}

// HolidaysBetween returns the holidays occurring in [from, to].
func (s *Store) HolidaysBetween(ctx context.Context, from, to calendar.Date) ([]calendar.Holiday, error) {
	all, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	var out []calendar.Holiday
	for _, h := range all {
		if calendar.ExpandHolidays([]calendar.Holiday{h}, from, to).Len() > 0 {
			out = append(out, h)
		}
	}
	return out, nil
}

// isDuplicateKeyError checks if an error from MongoDB is a duplicate key
// error (code 11000).
func isDuplicateKeyError(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
