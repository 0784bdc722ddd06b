package services

// Services defined in this package:
// - RecordService: coordinates the create/update/delete lifecycle of every
//   record kind against the storage collaborator
// - AuthService: authenticates student and instructor accounts and issues
//   access tokens
