// Package dataprocessing implements the cleaning and transformation
// stages of the pipeline. Cleaning reconciles the drifting scraper
// schema onto canonical column sets; transformation builds the fact and
// dimension tables and the per-player modelling dataset.
package dataprocessing
