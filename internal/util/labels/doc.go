// Package labels provides consistent tagging utilities for EC2 resources.
//
// Every launched machine carries the same identity tags (Name,
// Environment, Timestamp, Service, Purpose, ExpectedTTL, Instance-Type);
// TagBuilder assembles them and converts them to EC2 tags and filters.
package labels
