// Package adapters implements the channel adapters the delivery
// orchestrator fans out to: transactional email, certified mail, SMS
// and push gateways, a failover-managed instant-messaging pair, the
// in-app feed, and real-time socket delivery.
package adapters
