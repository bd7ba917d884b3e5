package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.leads"
	DLXName      = "ex.leads.dlx" // Dead Letter Exchange

	// lead capturado -> pipeline de enriquecimento (externo)
	CapturedQueue      = "q.leads.captured"
	CapturedRoutingKey = "k.lead.captured"

	// resultado do enriquecimento -> enrichment-worker
	EnrichedQueue      = "q.leads.enriched"
	EnrichedDLQ        = "q.leads.enriched.dlq"
	EnrichedRoutingKey = "k.lead.enriched"
)

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("falha ao abrir canal: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

func setupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(EnrichedDLQ, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(EnrichedDLQ, EnrichedRoutingKey, DLXName, false, nil); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(CapturedQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(CapturedQueue, CapturedRoutingKey, ExchangeName, false, nil); err != nil {
		return err
	}

	// Nack sem requeue manda a mensagem para a DLQ
	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": EnrichedRoutingKey,
	}
	if _, err := ch.QueueDeclare(EnrichedQueue, true, false, false, false, args); err != nil {
		return err
	}
	return ch.QueueBind(EnrichedQueue, EnrichedRoutingKey, ExchangeName, false, nil)
}

func (r *RabbitMQ) Close() {
	if r.Ch != nil {
		r.Ch.Close()
	}
	if r.Conn != nil {
		r.Conn.Close()
	}
}
