// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: Row, the key and timestamps of profiles and groups
// - profile.go: profiles with their external accounts and languages
// - geo.go: countries, regions and cities profiles resolve to
// - group.go: groups and memberships
// - skill.go: skills
// - api_app.go: registered API consumers
package models
