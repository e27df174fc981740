package workflow

import "fmt"

// MachineBuilder builds the guard table of a procurement state machine
type MachineBuilder interface {
	// Guard returns the configuration of an operation that is legal only from listed kinds
	Guard(op Operation) OperationConfiguration

	// Unguarded registers operations that are legal from every status
	Unguarded(ops ...Operation) MachineBuilder

	// Build creates an immutable machine from the configured table
	Build() Machine
}

// OperationConfiguration configures the legal source kinds of one operation
type OperationConfiguration interface {
	// PermitFrom adds kinds from which the operation may be applied
	PermitFrom(kinds ...StatusKind) OperationConfiguration
}

// operationRule is one row of the guard table; a nil from set means unguarded
type operationRule struct {
	op   Operation
	from map[StatusKind]bool
}

// operationConfig implements OperationConfiguration
type operationConfig struct {
	rule *operationRule
}

// machineBuilder implements MachineBuilder
type machineBuilder struct {
	rules map[Operation]*operationRule
	order []Operation
}

// procurementMachine implements Machine
type procurementMachine struct {
	rules map[Operation]*operationRule
	order []Operation
}

// NewBuilder creates an empty machine builder
func NewBuilder() MachineBuilder {
	return &machineBuilder{
		rules: make(map[Operation]*operationRule),
	}
}

// Guard returns the configuration of an operation that is legal only from listed kinds
func (b *machineBuilder) Guard(op Operation) OperationConfiguration {
	rule, exists := b.rules[op]
	if exists && rule.from == nil {
		panic(fmt.Sprintf("operation %s is already registered as unguarded", op))
	}
	if !exists {
		rule = &operationRule{op: op, from: make(map[StatusKind]bool)}
		b.rules[op] = rule
		b.order = append(b.order, op)
	}
	return &operationConfig{rule: rule}
}

// Unguarded registers operations that are legal from every status
func (b *machineBuilder) Unguarded(ops ...Operation) MachineBuilder {
	for _, op := range ops {
		if _, exists := b.rules[op]; exists {
			panic(fmt.Sprintf("operation %s is already registered", op))
		}
		b.rules[op] = &operationRule{op: op}
		b.order = append(b.order, op)
	}
	return b
}

// Build creates an immutable machine from the configured table
func (b *machineBuilder) Build() Machine {
	rulesCopy := make(map[Operation]*operationRule, len(b.rules))
	for op, rule := range b.rules {
		copied := &operationRule{op: op}
		if rule.from != nil {
			copied.from = make(map[StatusKind]bool, len(rule.from))
			for kind := range rule.from {
				copied.from[kind] = true
			}
		}
		rulesCopy[op] = copied
	}

	return &procurementMachine{
		rules: rulesCopy,
		order: append([]Operation{}, b.order...),
	}
}

// PermitFrom adds kinds from which the operation may be applied
func (c *operationConfig) PermitFrom(kinds ...StatusKind) OperationConfiguration {
	for _, kind := range kinds {
		if !kind.IsValid() {
			panic(fmt.Sprintf("invalid status kind: %s", kind))
		}
		c.rule.from[kind] = true
	}
	return c
}
