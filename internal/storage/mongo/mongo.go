// internal/storage/mongo/mongo.go
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expense-hive/internal/domain"
	"expense-hive/internal/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	accountsCollection   = "users"
	categoriesCollection = "categories"
	expensesCollection   = "expenses"
)

type Storage struct {
	client     *mongo.Client
	db         *mongo.Database
	accounts   *mongo.Collection
	categories *mongo.Collection
	expenses   *mongo.Collection
}

var _ storage.Storage = (*Storage)(nil)

type accountDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	CreatedAt time.Time     `bson:"createdAt"`
}

type categoryDoc struct {
	ID      bson.ObjectID `bson:"_id"`
	Account bson.ObjectID `bson:"account"`
	Name    string        `bson:"name"`
	Color   string        `bson:"color"`
}

type expenseDoc struct {
	ID         bson.ObjectID  `bson:"_id"`
	Account    bson.ObjectID  `bson:"account"`
	Name       string         `bson:"name"`
	Amount     float64        `bson:"amount"`
	Date       time.Time      `bson:"date"`
	Category   string         `bson:"category"`
	CategoryID *bson.ObjectID `bson:"categoryId,omitempty"`
}

// Connect opens a client, pings it and makes sure the indexes exist.
func Connect(ctx context.Context, uri, database string) (*Storage, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s := NewStorage(client, database)
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func NewStorage(client *mongo.Client, database string) *Storage {
	db := client.Database(database)
	return &Storage{
		client:     client,
		db:         db,
		accounts:   db.Collection(accountsCollection),
		categories: db.Collection(categoriesCollection),
		expenses:   db.Collection(expensesCollection),
	}
}

func (s *Storage) Name() string { return "mongo" }

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return wrap("ping", err)
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique constraints: email per deployment, name
// and color per account.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	if _, err := s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return wrap("create account indexes", err)
	}

	if _, err := s.categories.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "account", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "account", Value: 1}, {Key: "color", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return wrap("create category indexes", err)
	}

	if _, err := s.expenses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "account", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "account", Value: 1}, {Key: "categoryId", Value: 1}}},
	}); err != nil {
		return wrap("create expense indexes", err)
	}

	slog.Debug("mongo indexes ensured", "database", s.db.Name())
	return nil
}

// DropAll removes every collection. Used by integration tests.
func (s *Storage) DropAll(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// === AccountStorage ===

func (s *Storage) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	doc := accountDoc{
		ID:        bson.NewObjectID(),
		Email:     account.Email,
		Password:  account.PasswordHash,
		CreatedAt: account.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := s.accounts.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &domain.ConflictError{Messages: []string{"Email already exists"}}
		}
		return nil, wrap("insert account", err)
	}
	a := doc.toDomain()
	return &a, nil
}

func (s *Storage) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.findAccount(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Storage) FindAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findAccount(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *Storage) findAccount(ctx context.Context, filter bson.D) (*domain.Account, error) {
	var doc accountDoc
	err := s.accounts.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrap("find account", err)
	}
	a := doc.toDomain()
	return &a, nil
}

// === CategoryStorage ===

func (s *Storage) ListCategories(ctx context.Context, accountID string) ([]domain.Category, error) {
	acc, err := objectID(accountID)
	if err != nil {
		return nil, err
	}
	cursor, err := s.categories.Find(ctx, bson.D{{Key: "account", Value: acc}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrap("find categories", err)
	}
	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrap("decode categories", err)
	}

	out := make([]domain.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Storage) InsertCategories(ctx context.Context, accountID string, categories []domain.Category) ([]domain.Category, error) {
	acc, err := objectID(accountID)
	if err != nil {
		return nil, err
	}
	docs := make([]categoryDoc, len(categories))
	for i, c := range categories {
		docs[i] = categoryDoc{ID: bson.NewObjectID(), Account: acc, Name: c.Name, Color: c.Color}
	}
	if _, err := s.categories.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &domain.ConflictError{Messages: []string{"category name or color already exists"}}
		}
		return nil, wrap("insert categories", err)
	}

	out := make([]domain.Category, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, accountID string, category domain.Category) (*domain.Category, error) {
	acc, err := objectID(accountID)
	if err != nil {
		return nil, err
	}
	id, err := objectID(category.ID)
	if err != nil {
		return nil, err
	}

	var doc categoryDoc
	err = s.categories.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "account", Value: acc}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "name", Value: category.Name}, {Key: "color", Value: category.Color}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, &domain.ConflictError{Messages: []string{fmt.Sprintf("category name %q or color %q already exists", category.Name, category.Color)}}
		}
		return nil, wrap("update category", err)
	}
	c := doc.toDomain()
	return &c, nil
}

// DeleteCategories also unlinks the account's expenses from the removed
// categories so a later category of the same name can claim them.
func (s *Storage) DeleteCategories(ctx context.Context, accountID string, ids []string) (int64, error) {
	n, err := deleteMany(ctx, s.categories, accountID, ids)
	if err != nil {
		return 0, err
	}

	acc, _ := objectID(accountID)
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, _ := objectID(id)
		oids = append(oids, oid)
	}
	_, err = s.expenses.UpdateMany(ctx,
		bson.D{
			{Key: "account", Value: acc},
			{Key: "categoryId", Value: bson.D{{Key: "$in", Value: oids}}},
		},
		bson.D{{Key: "$unset", Value: bson.D{{Key: "categoryId", Value: ""}}}},
	)
	if err != nil {
		return n, wrap("unlink expenses", err)
	}
	return n, nil
}

// === ExpenseStorage ===

func (s *Storage) ListExpenses(ctx context.Context, accountID string) ([]domain.Expense, error) {
	acc, err := objectID(accountID)
	if err != nil {
		return nil, err
	}
	cursor, err := s.expenses.Find(ctx, bson.D{{Key: "account", Value: acc}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrap("find expenses", err)
	}
	var docs []expenseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrap("decode expenses", err)
	}

	out := make([]domain.Expense, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Storage) InsertExpenses(ctx context.Context, accountID string, expenses []domain.Expense) ([]domain.Expense, error) {
	acc, err := objectID(accountID)
	if err != nil {
		return nil, err
	}
	docs := make([]expenseDoc, len(expenses))
	for i, e := range expenses {
		doc, err := newExpenseDoc(acc, e)
		if err != nil {
			return nil, err
		}
		doc.ID = bson.NewObjectID()
		docs[i] = doc
	}
	if _, err := s.expenses.InsertMany(ctx, docs); err != nil {
		return nil, wrap("insert expenses", err)
	}

	out := make([]domain.Expense, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (s *Storage) UpdateExpense(ctx context.Context, accountID string, expense domain.Expense) (*domain.Expense, error) {
	acc, err := objectID(accountID)
	if err != nil {
		return nil, err
	}
	id, err := objectID(expense.ID)
	if err != nil {
		return nil, err
	}
	doc, err := newExpenseDoc(acc, expense)
	if err != nil {
		return nil, err
	}

	set := bson.D{
		{Key: "name", Value: doc.Name},
		{Key: "amount", Value: doc.Amount},
		{Key: "date", Value: doc.Date},
		{Key: "category", Value: doc.Category},
	}
	var update bson.D
	if doc.CategoryID != nil {
		set = append(set, bson.E{Key: "categoryId", Value: *doc.CategoryID})
		update = bson.D{{Key: "$set", Value: set}}
	} else {
		update = bson.D{
			{Key: "$set", Value: set},
			{Key: "$unset", Value: bson.D{{Key: "categoryId", Value: ""}}},
		}
	}

	var updated expenseDoc
	err = s.expenses.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "account", Value: acc}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrap("update expense", err)
	}
	e := updated.toDomain()
	return &e, nil
}

func (s *Storage) DeleteExpenses(ctx context.Context, accountID string, ids []string) (int64, error) {
	return deleteMany(ctx, s.expenses, accountID, ids)
}

func (s *Storage) RenameCategory(ctx context.Context, accountID, categoryID, oldName, newName string) (int64, error) {
	acc, err := objectID(accountID)
	if err != nil {
		return 0, err
	}
	cat, err := objectID(categoryID)
	if err != nil {
		return 0, err
	}

	filter := bson.D{
		{Key: "account", Value: acc},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "categoryId", Value: cat}},
			bson.D{{Key: "categoryId", Value: bson.D{{Key: "$exists", Value: false}}}, {Key: "category", Value: oldName}},
		}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "category", Value: newName}, {Key: "categoryId", Value: cat}}}}

	res, err := s.expenses.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, wrap("rename expense category", err)
	}
	return res.MatchedCount, nil
}

func deleteMany(ctx context.Context, coll *mongo.Collection, accountID string, ids []string) (int64, error) {
	acc, err := objectID(accountID)
	if err != nil {
		return 0, err
	}
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := objectID(id)
		if err != nil {
			return 0, err
		}
		oids = append(oids, oid)
	}

	res, err := coll.DeleteMany(ctx, bson.D{
		{Key: "account", Value: acc},
		{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}},
	})
	if err != nil {
		return 0, wrap("delete from "+coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func newExpenseDoc(acc bson.ObjectID, e domain.Expense) (expenseDoc, error) {
	date, err := domain.ParseDate(e.Date)
	if err != nil {
		return expenseDoc{}, domain.NewValidationError(err.Error())
	}
	doc := expenseDoc{
		Account:  acc,
		Name:     e.Name,
		Amount:   e.Amount,
		Date:     date,
		Category: e.Category,
	}
	if e.CategoryID != "" {
		cat, err := objectID(e.CategoryID)
		if err != nil {
			return expenseDoc{}, err
		}
		doc.CategoryID = &cat
	}
	return doc, nil
}

func (d accountDoc) toDomain() domain.Account {
	return domain.Account{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
	}
}

func (d categoryDoc) toDomain() domain.Category {
	return domain.Category{
		ID:      d.ID.Hex(),
		Account: d.Account.Hex(),
		Name:    d.Name,
		Color:   d.Color,
	}
}

func (d expenseDoc) toDomain() domain.Expense {
	e := domain.Expense{
		ID:       d.ID.Hex(),
		Account:  d.Account.Hex(),
		Name:     d.Name,
		Amount:   d.Amount,
		Date:     domain.FormatDate(d.Date),
		Category: d.Category,
	}
	if d.CategoryID != nil {
		e.CategoryID = d.CategoryID.Hex()
	}
	return e
}

func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return oid, nil
}

// wrap marks network failures and timeouts as transient.
func wrap(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
