package constant

const (
	OrderIntakeStreamName               = "order_intake"
	OrderIntakeStreamSubjectAll         = "order_intake.*"
	OrderIntakeStreamSubjectOrderPlaced = "order_intake.order_placed"
)
