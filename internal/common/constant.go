package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// MailItemCapacitySoonExceeded is the message sent to a todolist owner once
// the list is close to its item limit.
const MailItemCapacitySoonExceeded = "Your todolist is about to reach its maximum number of items."
