// Package naming derives machine names and the tag values used to find
// them.
//
// A raw name is reduced to letters, digits, '-' and '_'. Outside the Live
// environment the environment name is appended, so "my app!!" becomes
// "myapp-Test" in Test and "myapp" in Live. Development lookups also
// match machines tagged by older tooling, whose environment tag was
// "Development" and whose names ended in "-Development".
package naming
