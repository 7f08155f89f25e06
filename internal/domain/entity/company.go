package entity

import "go.mongodb.org/mongo-driver/bson/primitive"

// Company is owned by the administrative routes; tasks keep a snapshot of it
type Company struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name           string             `bson:"name" json:"name"`
	City           string             `bson:"city" json:"city"`
	Address        string             `bson:"address" json:"address"`
	Representative string             `bson:"representative" json:"representative"`
	Support        string             `bson:"support" json:"support"`
	SoftwareType   string             `bson:"softwareType" json:"softwareType"`
}

// Snapshot returns the denormalized copy embedded in tasks
func (c *Company) Snapshot() CompanySnapshot {
	return CompanySnapshot{
		ID:             c.ID,
		Name:           c.Name,
		City:           c.City,
		Address:        c.Address,
		Representative: c.Representative,
		Support:        c.Support,
	}
}

// User is a developer or staff member that tasks can be assigned to
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username string             `bson:"username" json:"username"`
	Name     string             `bson:"name" json:"name"`
	Role     RoleRef            `bson:"role" json:"role"`
}

// Snapshot returns the denormalized copy embedded in tasks
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
	}
}
