/*
Package models classifies upstream model names into quota groups. Quota
accounting upstream is per group, not per model, so every surface that
tracks usage funnels model names through Classify first.
*/
package models
