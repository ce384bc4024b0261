package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sundroptea/teahouse-backend/internal/models"
)

// MongoStore implements LedgerStore, OrderStore and ProfileStore on a
// MongoDB database. Stock and profile mutations are expressed as $inc
// updates so concurrent writers never lose updates, and the
// idempotency claims are conditional single-document updates with the
// flag in the filter.
type MongoStore struct {
	client      *mongo.Client
	ingredients *mongo.Collection
	orders      *mongo.Collection
	customers   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	return &MongoStore{
		client:      client,
		ingredients: db.Collection("ingredients"),
		orders:      db.Collection("orders"),
		customers:   db.Collection("customers"),
	}, nil
}

// Close disconnects the underlying client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Stock returns the current stock quantity of an ingredient
func (s *MongoStore) Stock(ctx context.Context, ingredientID string) (float64, error) {
	ing, err := s.Ingredient(ctx, ingredientID)
	if err != nil {
		return 0, err
	}
	return ing.Stock, nil
}

// Ingredient returns an ingredient record by ID
func (s *MongoStore) Ingredient(ctx context.Context, ingredientID string) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := s.ingredients.FindOne(ctx, bson.M{"_id": ingredientID}).Decode(&ing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrIngredientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ingredient %s: %w", ingredientID, err)
	}
	return &ing, nil
}

// ToppingByName resolves a topping ingredient by display name
func (s *MongoStore) ToppingByName(ctx context.Context, name string) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := s.ingredients.FindOne(ctx, bson.M{"name": name, "isTopping": true}).Decode(&ing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrIngredientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read topping %q: %w", name, err)
	}
	return &ing, nil
}

// ApplyIncrements applies all deltas inside one multi-document
// transaction: either every increment lands or none does.
func (s *MongoStore) ApplyIncrements(ctx context.Context, deltas []StockDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, d := range deltas {
			res, err := s.ingredients.UpdateOne(sc,
				bson.M{"_id": d.IngredientID},
				bson.M{"$inc": bson.M{"stock": d.Delta}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, fmt.Errorf("%w: %s", ErrIngredientNotFound, d.IngredientID)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("ledger increment transaction failed: %w", err)
	}
	return nil
}

// Insert stores a new order
func (s *MongoStore) Insert(ctx context.Context, order *models.Order) error {
	if _, err := s.orders.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// Get returns an order by ID
func (s *MongoStore) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order %s: %w", id, err)
	}
	return &order, nil
}

func statusUpdateDoc(upd StatusUpdate) bson.M {
	set := bson.M{}
	if upd.Status != "" {
		set["status"] = upd.Status
	}
	if upd.CompletedAt != nil {
		set["completedAt"] = *upd.CompletedAt
	}
	if upd.MarkInventoryDeducted {
		set["inventoryDeducted"] = true
	}
	if upd.MarkLoyaltyAccrued {
		set["loyaltyAccrued"] = true
	}
	return bson.M{"$set": set}
}

// UpdateStatus applies a status update unconditionally
func (s *MongoStore) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) error {
	res, err := s.orders.UpdateOne(ctx, bson.M{"_id": id}, statusUpdateDoc(upd))
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// UpdateStatusIf applies a status update with the guarded flag in the
// update filter. MatchedCount zero means the flag was already set and
// nothing changed; the claim is lost without a separate read.
func (s *MongoStore) UpdateStatusIf(ctx context.Context, id string, upd StatusUpdate, cond Condition) (bool, error) {
	filter := bson.M{"_id": id}
	switch cond {
	case IfInventoryNotDeducted:
		filter["inventoryDeducted"] = false
	case IfLoyaltyNotAccrued:
		filter["loyaltyAccrued"] = false
	}

	res, err := s.orders.UpdateOne(ctx, filter, statusUpdateDoc(upd))
	if err != nil {
		return false, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		if cond == Unconditional {
			return false, ErrOrderNotFound
		}
		// Either the order is unknown or the flag is already set;
		// disambiguate so an unknown order still surfaces as such.
		if _, err := s.Get(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// ClearInventoryDeducted releases a deduction claim after a failed
// ledger write
func (s *MongoStore) ClearInventoryDeducted(ctx context.Context, id string) error {
	res, err := s.orders.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"inventoryDeducted": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to clear deduction flag on order %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Profile returns a customer profile by ID
func (s *MongoStore) Profile(ctx context.Context, customerID string) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	err := s.customers.FindOne(ctx, bson.M{"_id": customerID}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read customer %s: %w", customerID, err)
	}
	return &profile, nil
}

// ApplyProfileIncrements applies the loyalty increments and the history
// append as one single-document update
func (s *MongoStore) ApplyProfileIncrements(ctx context.Context, customerID string, inc ProfileIncrements, entry models.RewardEntry) error {
	res, err := s.customers.UpdateOne(ctx,
		bson.M{"_id": customerID},
		bson.M{
			"$inc": bson.M{
				"points":         inc.Points,
				"lifetimePoints": inc.LifetimePoints,
				"totalOrders":    inc.Orders,
				"totalSpent":     inc.Spent,
			},
			"$push": bson.M{"rewardsHistory": entry},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update customer %s: %w", customerID, err)
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}
