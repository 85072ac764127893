// Package services contains the core application services. Services
// implement the driving ports and depend only on domain types and
// driven port interfaces, never on concrete adapters.
package services
