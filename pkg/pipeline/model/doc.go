// Package model holds the types shared by the pipeline package and its options:
// step descriptions, typed steps and the option hooks a pipeline calls while it runs.
package model
