package model

// User represents a row in the `usuarios` table. The column names are
// inherited from the original Caminante database and kept as-is so this
// service can run against an existing deployment. Handlers define their
// own response types with JSON tags; the PasswordHash field must never
// be serialized.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name (usuarios.nombre).
//  Email        – unique email address (usuarios.correo).
//  PasswordHash – bcrypt hashed password (usuarios.contrasena).
//  Role         – role name, "admin" or "usuario" (usuarios.rol).
type User struct {
	ID           uint64 // usuarios.id
	Name         string // usuarios.nombre
	Email        string // usuarios.correo
	PasswordHash string // usuarios.contrasena
	Role         string // usuarios.rol
}

// Roles accepted in usuarios.rol and in the JWT role claim.
const (
	RoleAdmin     = "admin"
	RolePassenger = "usuario"
)

// ValidRole reports whether r is one of the recognized role names.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RolePassenger
}
