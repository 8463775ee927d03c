package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
)

const userCollection = "users"

// MongoUserRepository implements ports.UserRepository over the users collection.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

// EnsureIndexes creates the unique email index. Safe to call on every
// startup; Mongo treats an existing identical index as a no-op.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

type mongoAddress struct {
	Street     string `bson:"street,omitempty"`
	City       string `bson:"city,omitempty"`
	PostalCode string `bson:"postal_code,omitempty"`
	Country    string `bson:"country,omitempty"`
}

type mongoCartItem struct {
	ProductID string `bson:"product"`
	Quantity  int    `bson:"quantity"`
}

type mongoUser struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	Username        string             `bson:"username"`
	Email           string             `bson:"email"`
	PasswordHash    string             `bson:"password_hash"`
	Role            string             `bson:"role"`
	IsAdmin         bool               `bson:"is_admin"`
	Mobile          string             `bson:"mobile,omitempty"`
	ShippingAddress *mongoAddress      `bson:"shipping_address,omitempty"`
	BillingAddress  *mongoAddress      `bson:"billing_address,omitempty"`
	Cart            []mongoCartItem    `bson:"cart,omitempty"`
	Wishlist        []string           `bson:"wishlist,omitempty"`
	CreatedAt       int64              `bson:"created_at"`
	UpdatedAt       int64              `bson:"updated_at"`
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := toMongoUser(user)
	doc.ID = primitive.ObjectID{}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *MongoUserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	doc := toMongoUser(user)
	doc.ID = oid

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) List(ctx context.Context, filter ports.UserListFilter) ([]*domain.User, int64, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.PageSize)).
		SetLimit(int64(filter.PageSize))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*domain.User
	for cursor.Next(ctx) {
		var mu mongoUser
		if err := cursor.Decode(&mu); err != nil {
			return nil, 0, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, mu.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// DashboardStats runs the admin dashboard aggregates: total users, users
// created since the given time, and the total number of items sitting in
// carts across all users.
func (r *MongoUserRepository) DashboardStats(ctx context.Context, since time.Time) (*domain.DashboardStats, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	recent, err := r.coll.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since.Unix()}})
	if err != nil {
		return nil, fmt.Errorf("count recent users: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "cart_items", Value: bson.D{
				{Key: "$sum", Value: bson.D{
					{Key: "$size", Value: bson.D{
						{Key: "$ifNull", Value: bson.A{"$cart", bson.A{}}},
					}},
				}},
			}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate cart items: %w", err)
	}
	defer cursor.Close(ctx)

	var cartTotal int64
	if cursor.Next(ctx) {
		var row struct {
			CartItems int64 `bson:"cart_items"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode cart aggregate: %w", err)
		}
		cartTotal = row.CartItems
	}

	return &domain.DashboardStats{
		UserCount:     total,
		NewUsersWeek:  recent,
		CartItemTotal: cartTotal,
	}, nil
}

func toMongoUser(u *domain.User) mongoUser {
	doc := mongoUser{
		Name:         u.Name,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsAdmin:      u.IsAdmin,
		Mobile:       u.Mobile,
		Wishlist:     u.Wishlist,
		CreatedAt:    u.CreatedAt.Unix(),
		UpdatedAt:    u.UpdatedAt.Unix(),
	}
	if u.ShippingAddress != nil {
		doc.ShippingAddress = &mongoAddress{
			Street:     u.ShippingAddress.Street,
			City:       u.ShippingAddress.City,
			PostalCode: u.ShippingAddress.PostalCode,
			Country:    u.ShippingAddress.Country,
		}
	}
	if u.BillingAddress != nil {
		doc.BillingAddress = &mongoAddress{
			Street:     u.BillingAddress.Street,
			City:       u.BillingAddress.City,
			PostalCode: u.BillingAddress.PostalCode,
			Country:    u.BillingAddress.Country,
		}
	}
	for _, item := range u.Cart {
		doc.Cart = append(doc.Cart, mongoCartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return doc
}

func (mu *mongoUser) toDomain() *domain.User {
	user := &domain.User{
		ID:           mu.ID.Hex(),
		Name:         mu.Name,
		Username:     mu.Username,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		Role:         mu.Role,
		IsAdmin:      mu.IsAdmin,
		Mobile:       mu.Mobile,
		Wishlist:     mu.Wishlist,
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
	}
	if mu.ShippingAddress != nil {
		user.ShippingAddress = &domain.Address{
			Street:     mu.ShippingAddress.Street,
			City:       mu.ShippingAddress.City,
			PostalCode: mu.ShippingAddress.PostalCode,
			Country:    mu.ShippingAddress.Country,
		}
	}
	if mu.BillingAddress != nil {
		user.BillingAddress = &domain.Address{
			Street:     mu.BillingAddress.Street,
			City:       mu.BillingAddress.City,
			PostalCode: mu.BillingAddress.PostalCode,
			Country:    mu.BillingAddress.Country,
		}
	}
	for _, item := range mu.Cart {
		user.Cart = append(user.Cart, domain.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return user
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
