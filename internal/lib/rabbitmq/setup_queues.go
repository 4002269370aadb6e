package rabbitmq

const (
	// PaymentsExchange exchange для событий платежей.
	PaymentsExchange = "payments"
	// PaymentCompletedKey ключ маршрутизации события о завершённом платеже.
	PaymentCompletedKey = "payment.completed"
)

// QueueConfig описывает очередь и её ключ привязки к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetPaymentQueues возвращает очереди, которые объявляет сервис.
func GetPaymentQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "payment.completed", RoutingKey: PaymentCompletedKey},
	}
}
