package protocol

// Message types published on the records topic.
const (
	TypeRecordSaved      = "record.saved"
	TypeRecordDeleted    = "record.deleted"
	TypePredictionLogged = "prediction.logged"
)

// Roles for Address.Role.
const (
	RoleStore = "store"
)

// Protocol version.
const Version = 1
