package models

// All returns every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Property{},
		&Room{},
		&PaymentIntent{},
		&RoomLevyPayment{},
		&GatewayVerificationLog{},
		&Booking{},
		&Payment{},
		&Notification{},
		&TenancyAgreement{},
		&StudentAgreementAccess{},
		&OwnerDocumentBundle{},
		&OwnerDocumentRevision{},
		&UserNotifPreference{},
		&ScheduledTask{},
		&ScheduledTaskHistory{},
	}
}
