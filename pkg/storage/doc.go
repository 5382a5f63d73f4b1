// Package storage provides persistent storage for nutritrack. It uses
// BadgerDB as the embedded database and holds the goal, the meal log and the
// persisted similarity index pair.
package storage
