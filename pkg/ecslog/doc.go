/*
Package ecslog provides structured logging for the engine using
zerolog.

The package wraps zerolog to give every subsystem — Store, Scheduler,
Command executor, Query engine, projections — a component-scoped child
logger with consistent fields, instead of each package rolling its own
log.Printf calls.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - zerolog instance, set via Init(Config)   │          │
	│  │  - safe for concurrent use                  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Component Loggers                 │          │
	│  │  - WithComponent("scheduler")                │          │
	│  │  - WithSystem("move_hero")                  │          │
	│  │  - WithFrame(142)                           │          │
	│  └──────────────────────────────────────────────┘          │
	└────────────────────────────────────────────────────────────┘
*/
package ecslog
